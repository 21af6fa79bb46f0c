// Package enhance applies a params.ParameterSet to an image.
//
// Enhance runs only the stages whose controlling field is not at its
// identity value, always in this order:
//
//	perspective  page quad warped to a rectangle, shadows flattened
//	deskew       rotate by the negated estimated text angle
//	grayscale    color == 0
//	denoise      3x3 median
//	brightness   multiplicative per channel
//	contrast     slope around mid-gray
//	saturation   blend between pixel gray and pixel color
//	sharpness    unsharp mask above 1, Gaussian blur below 1
//	binarize     luminance >= threshold is white, output *image.Gray
//	resize       Lanczos, re-thresholded when binarized
//
// Geometry is normalised before pixel statistics change, binarize sees
// the final photometric state, and resizing last avoids pushing
// interpolation artefacts through later filters.
//
// Every stage returns a new image; inputs are never modified. With the
// identity ParameterSet Enhance returns a pixel-identical copy of the same
// concrete type.
package enhance
