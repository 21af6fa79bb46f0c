// Package report turns an enhancement run into artifacts a person can look
// at: a side-by-side comparison, a metrics plot and numeric measurements.
package report

import (
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/ocr-enhance/internal/params"
)

// EnhancementReport bundles an original image, its enhanced version and the
// parameters that produced it.
type EnhancementReport struct {
	Original image.Image
	Enhanced image.Image
	Params   params.ParameterSet
}

// Describe returns the caption listing the parameters that changed
// anything, e.g. "Applied: Contrast=1.40, Denoise, Binarize(t=131)".
func Describe(p params.ParameterSet) string {
	var changes []string
	if p.Perspective() {
		changes = append(changes, "Perspective")
	}
	if p.Deskew() {
		changes = append(changes, "Deskew")
	}
	if p.Brightness() != 1 {
		changes = append(changes, fmt.Sprintf("Brightness=%.2f", p.Brightness()))
	}
	if p.Contrast() != 1 {
		changes = append(changes, fmt.Sprintf("Contrast=%.2f", p.Contrast()))
	}
	if p.Sharpness() != 1 {
		changes = append(changes, fmt.Sprintf("Sharpness=%.2f", p.Sharpness()))
	}
	switch c := p.Color(); {
	case c == 0:
		changes = append(changes, "Grayscale")
	case c != 1:
		changes = append(changes, fmt.Sprintf("Color=%.2f", c))
	}
	if p.Denoise() {
		changes = append(changes, "Denoise")
	}
	if p.Binarize() {
		changes = append(changes, fmt.Sprintf("Binarize(t=%d)", p.Threshold()))
	}
	if f, ok := p.ResizeFactor(); ok {
		changes = append(changes, fmt.Sprintf("Resize(%.2fx)", f))
	}
	if len(changes) == 0 {
		return "Applied: No changes"
	}
	return "Applied: " + strings.Join(changes, ", ")
}

// parameterLines is the full parameter listing printed under a comparison.
func parameterLines(p params.ParameterSet) []string {
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	lines := []string{
		fmt.Sprintf("Brightness: %.2f", p.Brightness()),
		fmt.Sprintf("Contrast: %.2f", p.Contrast()),
		fmt.Sprintf("Sharpness: %.2f", p.Sharpness()),
		fmt.Sprintf("Color: %.2f", p.Color()),
		"Denoise: " + yesNo(p.Denoise()),
		"Binarize: " + yesNo(p.Binarize()),
	}
	if p.Binarize() {
		lines = append(lines, fmt.Sprintf("Binarize Threshold: %d", p.Threshold()))
	}
	if p.Deskew() {
		lines = append(lines, "Deskew: Yes")
	}
	if p.Perspective() {
		lines = append(lines, "Perspective: Yes")
	}
	if f, ok := p.ResizeFactor(); ok {
		lines = append(lines, fmt.Sprintf("Resize Factor: %.2fx", f))
	}
	return lines
}
