package imaging

import (
	"image/color"
	"testing"
)

func TestFitInto_ScalesDownAndCentres(t *testing.T) {
	img := createInMemoryImage(200, 100, color.RGBA{0, 0, 0, 255})
	out := FitInto(img, 100, 100, color.White)

	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("dimensions: got %v", out.Bounds())
	}
	// 200x100 fits as 100x50, centred vertically: rows 25..74 are black.
	if c := out.NRGBAAt(50, 50); c.R != 0 {
		t.Errorf("centre: got %v, want black", c)
	}
	if c := out.NRGBAAt(50, 5); c.R != 255 {
		t.Errorf("top padding: got %v, want white", c)
	}
}

func TestFitInto_DoesNotUpscale(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	out := FitInto(img, 100, 100, color.White)
	if c := out.NRGBAAt(5, 5); c.R != 255 {
		t.Errorf("small image should stay small and centred, corner got %v", c)
	}
	if c := out.NRGBAAt(50, 50); c.R != 0 {
		t.Errorf("centre: got %v, want black", c)
	}
}

func TestMatchSize(t *testing.T) {
	a := createInMemoryImage(100, 80, color.White)
	b := createInMemoryImage(50, 120, color.White)

	ma, mb := MatchSize(a, b)
	if ma.Bounds().Dx() != 50 || ma.Bounds().Dy() != 80 {
		t.Errorf("a: got %v, want 50x80", ma.Bounds())
	}
	if mb.Bounds() != ma.Bounds() {
		t.Errorf("b: got %v, want %v", mb.Bounds(), ma.Bounds())
	}

	same := createInMemoryImage(10, 10, color.White)
	x, y := MatchSize(same, same)
	if x != same || y != same {
		t.Error("matching sizes should be returned unchanged")
	}
}

func TestScaleToHeight(t *testing.T) {
	out := ScaleToHeight(createInMemoryImage(200, 100, color.White), 50)
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 50 {
		t.Errorf("dimensions: got %v, want 100x50", out.Bounds())
	}
}
