package autoselect

import (
	"image"
	"math"

	"github.com/ironsheep/ocr-enhance/internal/detection"
	"github.com/ironsheep/ocr-enhance/internal/params"
)

// Decision thresholds.
const (
	LowSpread         = 0.5 // contrast stretch below this percentile spread
	SpreadBrightBoost = 0.3 // brightness gain per unit of spread deficit
	DarkMean          = 0.3
	DarkGain          = 2.0
	BrightMean        = 0.85
	BrightGain        = 1.5
	MinAutoBrightness = 0.7
	NoiseSigmaLimit   = 6.0
	SkewLimit         = 1.0 // degrees
	BlurVariance      = 50.0
	DullSaturation    = 0.1
	PhotoSharpness    = 1.3
	PhotoColor        = 1.2
)

// Select analyses img and returns the ParameterSet it should be enhanced
// with. Well-formed images never fail; the error is an
// *imaging.UnsupportedImageError.
func Select(img image.Image) (params.ParameterSet, error) {
	s, err := Analyze(img)
	if err != nil {
		return params.ParameterSet{}, err
	}
	return FromStats(s), nil
}

// FromStats maps statistics to parameters. The result is always valid and
// depends only on s.
func FromStats(s Stats) params.ParameterSet {
	if s.StdDev == 0 {
		return params.Default()
	}

	brightness, contrast := 1.0, 1.0
	lowSpread := s.Spread < LowSpread
	if lowSpread {
		deficit := (LowSpread - s.Spread) / LowSpread
		contrast = 1 + deficit
		brightness = 1 + SpreadBrightBoost*deficit
	}
	if s.Mean < DarkMean {
		brightness = math.Max(brightness, math.Min(1+DarkGain*(DarkMean-s.Mean), params.MaxBrightness))
	}
	// A washed-out page is dimmed only when its spread is healthy; a low
	// spread always raises brightness with the contrast stretch.
	if s.Mean > BrightMean && !lowSpread {
		brightness = math.Min(brightness, math.Max(1-BrightGain*(s.Mean-BrightMean), MinAutoBrightness))
	}

	opts := []params.Option{
		params.WithBrightness(round2(clampTo(brightness, params.MinBrightness, params.MaxBrightness))),
		params.WithContrast(round2(clampTo(contrast, params.MinContrast, params.MaxContrast))),
		params.WithDenoise(s.NoiseSigma > NoiseSigmaLimit),
		params.WithDeskew(s.Skew.Reliable && math.Abs(s.Skew.AngleDegrees) > SkewLimit),
	}

	if s.Kind == detection.Document {
		opts = append(opts,
			params.WithBinarize(true),
			params.WithThreshold(minInt(s.OtsuThreshold+1, params.MaxThreshold)),
			params.WithPerspective(s.HasQuad),
		)
	} else {
		if s.LaplacianVariance < BlurVariance {
			opts = append(opts, params.WithSharpness(PhotoSharpness))
		}
		if s.Saturation < DullSaturation {
			opts = append(opts, params.WithColor(PhotoColor))
		}
	}

	p, err := params.New(opts...)
	if err != nil {
		// Every option above is clamped into its domain.
		return params.Default()
	}
	return p
}

func clampTo(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
