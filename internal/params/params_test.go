package params

import (
	"errors"
	"math"
	"testing"
)

func TestDefault_IsIdentity(t *testing.T) {
	p := Default()
	if !p.IsIdentity() {
		t.Errorf("Default() should be identity, got %s", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Default() should validate: %v", err)
	}
	if p.Threshold() != DefaultThreshold {
		t.Errorf("Threshold: got %d, want %d", p.Threshold(), DefaultThreshold)
	}
	if _, ok := p.ResizeFactor(); ok {
		t.Error("Default() should have no resize factor")
	}
	if p.String() != "identity" {
		t.Errorf("String: got %q, want identity", p.String())
	}
}

func TestNew_RejectsOutOfDomain(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		field string
	}{
		{"brightness too high", WithBrightness(3.0), "brightness"},
		{"brightness too low", WithBrightness(0.49), "brightness"},
		{"brightness NaN", WithBrightness(math.NaN()), "brightness"},
		{"contrast too high", WithContrast(2.01), "contrast"},
		{"contrast too low", WithContrast(0.4), "contrast"},
		{"sharpness negative", WithSharpness(-0.1), "sharpness"},
		{"color too high", WithColor(2.5), "color"},
		{"threshold negative", WithThreshold(-1), "binarize_threshold"},
		{"threshold too high", WithThreshold(256), "binarize_threshold"},
		{"resize zero", WithResize(0), "resize_factor"},
		{"resize negative", WithResize(-2), "resize_factor"},
		{"resize infinite", WithResize(math.Inf(1)), "resize_factor"},
		{"resize above limit", WithResize(MaxResizeFactor + 0.01), "resize_factor"},
		{"resize huge", WithResize(1e300), "resize_factor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			var ipe *InvalidParameterError
			if !errors.As(err, &ipe) {
				t.Fatalf("expected *InvalidParameterError, got %v", err)
			}
			if ipe.Field != tt.field {
				t.Errorf("Field: got %s, want %s", ipe.Field, tt.field)
			}
		})
	}
}

func TestNew_AcceptsBounds(t *testing.T) {
	p, err := New(
		WithBrightness(MaxBrightness),
		WithContrast(MinContrast),
		WithSharpness(MinSharpness),
		WithColor(MaxColor),
		WithThreshold(MaxThreshold),
		WithResize(0.25),
	)
	if err != nil {
		t.Fatalf("bounds should be accepted: %v", err)
	}
	if f, ok := p.ResizeFactor(); !ok || f != 0.25 {
		t.Errorf("ResizeFactor: got %v,%v want 0.25,true", f, ok)
	}
	if _, err := New(WithResize(MaxResizeFactor)); err != nil {
		t.Errorf("resize %g should be accepted: %v", MaxResizeFactor, err)
	}
}

func TestWith_DoesNotMutateReceiver(t *testing.T) {
	base := Default()
	changed, err := base.With(WithDenoise(true), WithContrast(1.5))
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if base.Denoise() || base.Contrast() != 1 {
		t.Error("With modified the receiver")
	}
	if !changed.Denoise() || changed.Contrast() != 1.5 {
		t.Errorf("With did not apply options: %s", changed)
	}
	if base == changed {
		t.Error("expected different values to compare unequal")
	}
}

func TestWith_InvalidReturnsError(t *testing.T) {
	base := Default()
	if _, err := base.With(WithSharpness(5)); err == nil {
		t.Error("expected error for sharpness 5")
	}
}

func TestIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want bool
	}{
		{"default", nil, true},
		{"threshold only", []Option{WithThreshold(10)}, true},
		{"binarize", []Option{WithBinarize(true)}, false},
		{"deskew", []Option{WithDeskew(true)}, false},
		{"perspective", []Option{WithPerspective(true)}, false},
		{"resize", []Option{WithResize(2)}, false},
		{"color", []Option{WithColor(0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opts...)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if got := p.IsIdentity(); got != tt.want {
				t.Errorf("IsIdentity: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZeroValueIsInvalid(t *testing.T) {
	var p ParameterSet
	if err := p.Validate(); err == nil {
		t.Error("zero ParameterSet should not validate")
	}
}

func TestString(t *testing.T) {
	p, err := New(WithContrast(1.4), WithDenoise(true), WithBinarize(true), WithThreshold(131))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	want := "denoise contrast=1.40 binarize@131"
	if p.String() != want {
		t.Errorf("String: got %q, want %q", p.String(), want)
	}
}

func TestPreset(t *testing.T) {
	receipt := Preset(PresetReceipt)
	if receipt.Color() != 0 {
		t.Errorf("receipt color: got %v, want 0", receipt.Color())
	}
	if receipt.Contrast() != 1.4 {
		t.Errorf("receipt contrast: got %v, want 1.4", receipt.Contrast())
	}
	for id := 0; id < PresetCount(); id++ {
		p := Preset(id)
		if err := p.Validate(); err != nil {
			t.Errorf("preset %d invalid: %v", id, err)
		}
		if !p.Denoise() {
			t.Errorf("preset %d should denoise", id)
		}
	}
}

func TestPreset_UnknownFallsBack(t *testing.T) {
	for _, id := range []int{-1, 4, 99} {
		if Preset(id) != Preset(PresetMixed) {
			t.Errorf("Preset(%d) should fall back to mixed", id)
		}
		if PresetName(id) != PresetName(PresetMixed) {
			t.Errorf("PresetName(%d) should fall back to mixed", id)
		}
	}
}
