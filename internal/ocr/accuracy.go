package ocr

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Accuracy compares recognized text with a reference transcript.
type Accuracy struct {
	CharErrorRate  float64 `json:"cer"`
	WordErrorRate  float64 `json:"wer"`
	CharDistance   int     `json:"char_distance"`
	ReferenceChars int     `json:"reference_chars"`
	ReferenceWords int     `json:"reference_words"`
}

// Score measures hypothesis against reference. Whitespace runs are
// collapsed and leading/trailing space is ignored before comparing, since
// Tesseract's line breaks rarely match a transcript's. An empty reference
// scores 0 against an empty hypothesis and 1 against anything else.
func Score(reference, hypothesis string) Accuracy {
	refWords := strings.Fields(reference)
	hypWords := strings.Fields(hypothesis)
	ref := strings.Join(refWords, " ")
	hyp := strings.Join(hypWords, " ")

	a := Accuracy{
		CharDistance:   levenshtein.Distance(ref, hyp),
		ReferenceChars: len([]rune(ref)),
		ReferenceWords: len(refWords),
	}

	if a.ReferenceChars == 0 {
		if hyp != "" {
			a.CharErrorRate, a.WordErrorRate = 1, 1
		}
		return a
	}

	a.CharErrorRate = float64(a.CharDistance) / float64(a.ReferenceChars)
	a.WordErrorRate, _ = wer.WER(refWords, hypWords)
	return a
}
