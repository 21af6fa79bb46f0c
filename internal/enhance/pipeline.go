package enhance

import (
	"fmt"
	"image"
	"math"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/params"
)

// Stage names as reported by Plan.
const (
	StagePerspective = "perspective"
	StageDeskew      = "deskew"
	StageGrayscale   = "grayscale"
	StageDenoise     = "denoise"
	StageBrightness  = "brightness"
	StageContrast    = "contrast"
	StageSaturation  = "saturation"
	StageSharpness   = "sharpness"
	StageBinarize    = "binarize"
	StageResize      = "resize"
)

type stage struct {
	name    string
	enabled func(p params.ParameterSet) bool
	apply   func(img image.Image, p params.ParameterSet) image.Image
}

// stages is the fixed execution order.
var stages = []stage{
	{
		name:    StagePerspective,
		enabled: func(p params.ParameterSet) bool { return p.Perspective() },
		apply:   func(img image.Image, _ params.ParameterSet) image.Image { return Perspective(img) },
	},
	{
		name:    StageDeskew,
		enabled: func(p params.ParameterSet) bool { return p.Deskew() },
		apply:   func(img image.Image, _ params.ParameterSet) image.Image { return Deskew(img) },
	},
	{
		name:    StageGrayscale,
		enabled: func(p params.ParameterSet) bool { return p.Color() == 0 },
		apply:   func(img image.Image, _ params.ParameterSet) image.Image { return Grayscale(img) },
	},
	{
		name:    StageDenoise,
		enabled: func(p params.ParameterSet) bool { return p.Denoise() },
		apply:   func(img image.Image, _ params.ParameterSet) image.Image { return Denoise(img) },
	},
	{
		name:    StageBrightness,
		enabled: func(p params.ParameterSet) bool { return p.Brightness() != 1 },
		apply:   func(img image.Image, p params.ParameterSet) image.Image { return Brightness(img, p.Brightness()) },
	},
	{
		name:    StageContrast,
		enabled: func(p params.ParameterSet) bool { return p.Contrast() != 1 },
		apply:   func(img image.Image, p params.ParameterSet) image.Image { return Contrast(img, p.Contrast()) },
	},
	{
		name:    StageSaturation,
		enabled: func(p params.ParameterSet) bool { return p.Color() != 0 && p.Color() != 1 },
		apply:   func(img image.Image, p params.ParameterSet) image.Image { return Saturation(img, p.Color()) },
	},
	{
		name:    StageSharpness,
		enabled: func(p params.ParameterSet) bool { return p.Sharpness() != 1 },
		apply:   func(img image.Image, p params.ParameterSet) image.Image { return Sharpness(img, p.Sharpness()) },
	},
	{
		name:    StageBinarize,
		enabled: func(p params.ParameterSet) bool { return p.Binarize() },
		apply:   func(img image.Image, p params.ParameterSet) image.Image { return Binarize(img, p.Threshold()) },
	},
	{
		name: StageResize,
		enabled: func(p params.ParameterSet) bool {
			f, ok := p.ResizeFactor()
			return ok && f != 1
		},
		apply: func(img image.Image, p params.ParameterSet) image.Image {
			f, _ := p.ResizeFactor()
			out := Resize(img, f)
			if p.Binarize() {
				return Binarize(out, params.DefaultThreshold)
			}
			return out
		},
	},
}

// checkOutputSize rejects a resize that would take either side of the
// result past MaxOutputSide. Deskew may grow the canvas by up to √2 before
// the resize runs.
func checkOutputSize(b image.Rectangle, p params.ParameterSet) error {
	f, ok := p.ResizeFactor()
	if !ok {
		return nil
	}
	side := float64(b.Dx())
	if b.Dy() > b.Dx() {
		side = float64(b.Dy())
	}
	if p.Deskew() {
		side *= math.Sqrt2
	}
	if side*f > MaxOutputSide {
		return &params.InvalidParameterError{
			Field:  "resize_factor",
			Value:  f,
			Reason: fmt.Sprintf("output of about %.0f px per side exceeds %d", side*f, MaxOutputSide),
		}
	}
	return nil
}

// Plan lists, in execution order, the stages Enhance would run for p.
func Plan(p params.ParameterSet) []string {
	var names []string
	for _, s := range stages {
		if s.enabled(p) {
			names = append(names, s.name)
		}
	}
	return names
}

// Enhance applies p to img and returns a new image; img is not modified.
//
// The error is a *params.InvalidParameterError when p is outside its
// domain and a *imaging.UnsupportedImageError when img is unusable.
// Enhance is deterministic and safe to call from multiple goroutines.
func Enhance(img image.Image, p params.ParameterSet) (image.Image, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := imgutil.Validate(img); err != nil {
		return nil, err
	}
	if err := checkOutputSize(img.Bounds(), p); err != nil {
		return nil, err
	}

	out := img
	for _, s := range stages {
		if s.enabled(p) {
			out = s.apply(out, p)
		}
	}
	if out == img {
		return imgutil.Clone(img), nil
	}
	return out, nil
}
