package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createEdgeTestImage creates an image with a black rectangle on white background
// to create clear edges for testing
func createEdgeTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestCanny(t *testing.T) {
	edges := Canny(createEdgeTestImage(100, 100), 50, 150)

	if edges.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("bounds: got %v", edges.Bounds())
	}
	for _, v := range edges.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("edge map must be binary, found %d", v)
		}
	}

	// The rectangle border runs along x=25; somewhere near it an edge must fire.
	found := false
	for x := 22; x <= 28; x++ {
		if edges.GrayAt(x, 50).Y == 255 {
			found = true
		}
	}
	if !found {
		t.Error("expected an edge near the left side of the rectangle")
	}
	if edges.GrayAt(50, 50).Y != 0 {
		t.Error("rectangle interior should not be an edge")
	}
	if edges.GrayAt(5, 5).Y != 0 {
		t.Error("background should not be an edge")
	}
}

func TestCanny_UniformImage(t *testing.T) {
	edges := Canny(createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255}), 50, 150)
	if d := EdgeDensity(edges); d != 0 {
		t.Errorf("uniform image edge density: got %v, want 0", d)
	}
}

func TestCanny_SmallImage(t *testing.T) {
	edges := Canny(createInMemoryImage(1, 1, color.White), 50, 150)
	if edges.Bounds().Dx() != 1 || edges.Bounds().Dy() != 1 {
		t.Errorf("dimensions: got %v", edges.Bounds())
	}
}

func TestEdgeDensity(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		edges.SetGray(x, 0, color.Gray{Y: 255})
	}
	if d := EdgeDensity(edges); d != 0.1 {
		t.Errorf("EdgeDensity: got %v, want 0.1", d)
	}
}

func TestSobelMagnitude(t *testing.T) {
	plane := LuminancePlane(createEdgeTestImage(20, 20))
	mag := SobelMagnitude(plane)
	if len(mag) != 400 {
		t.Fatalf("len: got %d, want 400", len(mag))
	}
	if mag[10*20+10] != 0 {
		t.Errorf("flat interior gradient: got %v, want 0", mag[10*20+10])
	}
	if mag[10*20+5] == 0 {
		t.Error("expected a gradient on the rectangle border")
	}
}

func TestGaussianBlur(t *testing.T) {
	width, height := 10, 10
	data := make([]float64, width*height)
	for i := range data {
		data[i] = 0.5
	}

	blurred := gaussianBlur(data, width, height)
	for i, v := range blurred {
		if absFloat(v-0.5) > 1e-9 {
			t.Fatalf("blurred[%d]: got %.3f, want 0.5", i, v)
		}
	}
}

func TestGaussianBlur_WithSpot(t *testing.T) {
	width, height := 11, 11
	data := make([]float64, width*height)
	data[5*width+5] = 1.0

	blurred := gaussianBlur(data, width, height)
	if blurred[5*width+5] >= 1.0 {
		t.Error("bright spot should be reduced after blur")
	}
	for _, i := range []int{5*width + 4, 5*width + 6, 4*width + 5, 6*width + 5} {
		if blurred[i] == 0 {
			t.Error("neighbors should receive some brightness from blur")
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := clamp(tt.val, tt.min, tt.max); got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d", tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
