// Package ocr reads text back out of enhanced images so an enhancement can
// be judged by what Tesseract makes of it.
//
// Recognition goes through gosseract/v2, which links libtesseract. Images
// are handed to Tesseract in memory as PNG bytes; nothing is written to
// disk.
//
// # Prerequisites
//
// Tesseract and the language data for every language used must be
// installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Accuracy
//
// Score compares recognized text against a reference transcript and
// reports the character error rate (edit distance over reference length)
// and the word error rate. Both are 0 for a perfect read and may exceed 1
// when the hypothesis is much longer than the reference.
package ocr
