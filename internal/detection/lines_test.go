package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

// createTextPage draws rows of black "words" on a white page.
func createTextPage(width, height int) *image.NRGBA {
	img := imaging.New(width, height, color.White)
	for y := 30; y+5 < height-30; y += 24 {
		for x := 30; x+30 < width-30; x += 42 {
			for dy := 0; dy < 5; dy++ {
				for dx := 0; dx < 30; dx++ {
					img.Set(x+dx, y+dy, color.Black)
				}
			}
		}
	}
	return img
}

func TestEstimateSkew_Straight(t *testing.T) {
	skew := EstimateSkew(createTextPage(400, 300))
	if !skew.Reliable {
		t.Fatal("expected a reliable estimate on a text page")
	}
	if math.Abs(skew.AngleDegrees) >= 0.5 {
		t.Errorf("straight page: got %.1f°, want ~0", skew.AngleDegrees)
	}
}

func TestEstimateSkew_Rotated(t *testing.T) {
	tests := []float64{5, -3, 8}
	for _, angle := range tests {
		rotated := imaging.Rotate(createTextPage(400, 300), angle, color.White)
		skew := EstimateSkew(rotated)
		if !skew.Reliable {
			t.Fatalf("rotation %.0f°: expected a reliable estimate", angle)
		}
		if math.Abs(skew.AngleDegrees-angle) > 1.0 {
			t.Errorf("rotation %.0f°: got %.1f°", angle, skew.AngleDegrees)
		}
	}
}

func TestEstimateSkew_Deterministic(t *testing.T) {
	img := imaging.Rotate(createTextPage(300, 300), 4, color.White)
	first := EstimateSkew(img)
	for i := 0; i < 3; i++ {
		if got := EstimateSkew(img); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestEstimateSkew_Uniform(t *testing.T) {
	skew := EstimateSkew(imaging.New(50, 50, color.Gray{Y: 128}))
	if skew.Reliable || skew.AngleDegrees != 0 {
		t.Errorf("uniform image: got %+v, want unreliable 0", skew)
	}
}

func TestEstimateSkew_LargeImageIsDownscaled(t *testing.T) {
	skew := EstimateSkew(imaging.Rotate(createTextPage(1600, 1000), 3, color.White))
	if math.Abs(skew.AngleDegrees-3) > 1.0 {
		t.Errorf("got %.1f°, want ~3", skew.AngleDegrees)
	}
}

func TestProjectionScore_PeaksWhenAligned(t *testing.T) {
	var ink []image.Point
	for x := 0; x < 100; x++ {
		ink = append(ink, image.Pt(x, 10))
	}
	acc := make([]int, 2*200+3)
	aligned := projectionScore(ink, 0, acc, 200)
	tilted := projectionScore(ink, 5, acc, 200)
	if aligned != 100*100 {
		t.Errorf("aligned score: got %v, want 10000", aligned)
	}
	if tilted >= aligned {
		t.Errorf("tilted score %v should be below aligned %v", tilted, aligned)
	}
}
