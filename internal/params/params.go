package params

import (
	"fmt"
	"math"
	"strings"
)

// Domain bounds for the numeric fields.
const (
	MinBrightness = 0.5
	MaxBrightness = 1.5
	MinContrast   = 0.5
	MaxContrast   = 2.0
	MinSharpness  = 0.0
	MaxSharpness  = 2.0
	MinColor      = 0.0
	MaxColor      = 2.0
	MinThreshold  = 0
	MaxThreshold  = 255

	// MaxResizeFactor bounds upscaling. Downscaling is bounded only by zero.
	MaxResizeFactor = 8.0

	// DefaultThreshold is the binarize threshold used when none is given.
	DefaultThreshold = 128
)

// ParameterSet describes one enhancement configuration.
//
// The zero value is not valid; use Default or New. Two sets compare equal
// with == when every field matches.
type ParameterSet struct {
	brightness  float64
	contrast    float64
	sharpness   float64
	color       float64
	denoise     bool
	binarize    bool
	threshold   int
	deskew      bool
	perspective bool
	resize      float64
	hasResize   bool
}

// Option sets one field while building a ParameterSet.
type Option func(*ParameterSet)

func WithBrightness(v float64) Option { return func(p *ParameterSet) { p.brightness = v } }
func WithContrast(v float64) Option   { return func(p *ParameterSet) { p.contrast = v } }
func WithSharpness(v float64) Option  { return func(p *ParameterSet) { p.sharpness = v } }

// WithColor sets the saturation factor. 0 produces a grayscale image.
func WithColor(v float64) Option { return func(p *ParameterSet) { p.color = v } }

func WithDenoise(on bool) Option     { return func(p *ParameterSet) { p.denoise = on } }
func WithDeskew(on bool) Option      { return func(p *ParameterSet) { p.deskew = on } }
func WithPerspective(on bool) Option { return func(p *ParameterSet) { p.perspective = on } }

// WithBinarize enables or disables thresholding without touching the
// threshold value.
func WithBinarize(on bool) Option { return func(p *ParameterSet) { p.binarize = on } }

// WithThreshold sets the binarize threshold. Pixels whose luminance is
// greater than or equal to it become white.
func WithThreshold(t int) Option { return func(p *ParameterSet) { p.threshold = t } }

// WithResize sets the resize factor.
func WithResize(factor float64) Option {
	return func(p *ParameterSet) {
		p.resize = factor
		p.hasResize = true
	}
}

// WithoutResize clears the resize factor.
func WithoutResize() Option {
	return func(p *ParameterSet) {
		p.resize = 0
		p.hasResize = false
	}
}

// Default returns the identity ParameterSet: enhancing with it returns an
// unchanged copy of the input.
func Default() ParameterSet {
	return ParameterSet{
		brightness: 1.0,
		contrast:   1.0,
		sharpness:  1.0,
		color:      1.0,
		threshold:  DefaultThreshold,
	}
}

// New builds a ParameterSet from the identity values plus opts. It returns an
// *InvalidParameterError if any resulting field is out of its domain.
func New(opts ...Option) (ParameterSet, error) {
	return Default().With(opts...)
}

// With returns a copy of p with opts applied. p itself is never changed.
func (p ParameterSet) With(opts ...Option) (ParameterSet, error) {
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return ParameterSet{}, err
	}
	return p, nil
}

func (p ParameterSet) Brightness() float64 { return p.brightness }
func (p ParameterSet) Contrast() float64   { return p.contrast }
func (p ParameterSet) Sharpness() float64  { return p.sharpness }
func (p ParameterSet) Color() float64      { return p.color }
func (p ParameterSet) Denoise() bool       { return p.denoise }
func (p ParameterSet) Binarize() bool      { return p.binarize }
func (p ParameterSet) Threshold() int      { return p.threshold }
func (p ParameterSet) Deskew() bool        { return p.deskew }
func (p ParameterSet) Perspective() bool   { return p.perspective }

// ResizeFactor returns the resize factor and whether one is set.
func (p ParameterSet) ResizeFactor() (float64, bool) {
	return p.resize, p.hasResize
}

// Validate checks every field against its domain.
func (p ParameterSet) Validate() error {
	if err := checkRange("brightness", p.brightness, MinBrightness, MaxBrightness); err != nil {
		return err
	}
	if err := checkRange("contrast", p.contrast, MinContrast, MaxContrast); err != nil {
		return err
	}
	if err := checkRange("sharpness", p.sharpness, MinSharpness, MaxSharpness); err != nil {
		return err
	}
	if err := checkRange("color", p.color, MinColor, MaxColor); err != nil {
		return err
	}
	if p.threshold < MinThreshold || p.threshold > MaxThreshold {
		return &InvalidParameterError{
			Field:  "binarize_threshold",
			Value:  p.threshold,
			Reason: fmt.Sprintf("must be in [%d, %d]", MinThreshold, MaxThreshold),
		}
	}
	if f, ok := p.ResizeFactor(); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return &InvalidParameterError{
				Field:  "resize_factor",
				Value:  f,
				Reason: "must be a positive finite number",
			}
		}
		if f > MaxResizeFactor {
			return &InvalidParameterError{
				Field:  "resize_factor",
				Value:  f,
				Reason: fmt.Sprintf("must be at most %g", MaxResizeFactor),
			}
		}
	}
	return nil
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return &InvalidParameterError{
			Field:  field,
			Value:  v,
			Reason: fmt.Sprintf("must be in [%g, %g]", lo, hi),
		}
	}
	return nil
}

// IsIdentity reports whether enhancing with p leaves an image unchanged.
// The binarize threshold is ignored when binarize is off.
func (p ParameterSet) IsIdentity() bool {
	return p.brightness == 1 && p.contrast == 1 && p.sharpness == 1 && p.color == 1 &&
		!p.denoise && !p.binarize && !p.deskew && !p.perspective && !p.hasResize
}

// String renders the non-identity fields, e.g. "contrast=1.40 denoise binarize@131".
// The identity set renders as "identity".
func (p ParameterSet) String() string {
	var parts []string
	if p.perspective {
		parts = append(parts, "perspective")
	}
	if p.deskew {
		parts = append(parts, "deskew")
	}
	if p.color != 1 {
		parts = append(parts, fmt.Sprintf("color=%.2f", p.color))
	}
	if p.denoise {
		parts = append(parts, "denoise")
	}
	if p.brightness != 1 {
		parts = append(parts, fmt.Sprintf("brightness=%.2f", p.brightness))
	}
	if p.contrast != 1 {
		parts = append(parts, fmt.Sprintf("contrast=%.2f", p.contrast))
	}
	if p.sharpness != 1 {
		parts = append(parts, fmt.Sprintf("sharpness=%.2f", p.sharpness))
	}
	if p.binarize {
		parts = append(parts, fmt.Sprintf("binarize@%d", p.threshold))
	}
	if f, ok := p.ResizeFactor(); ok {
		parts = append(parts, fmt.Sprintf("resize=%.2f", f))
	}
	if len(parts) == 0 {
		return "identity"
	}
	return strings.Join(parts, " ")
}
