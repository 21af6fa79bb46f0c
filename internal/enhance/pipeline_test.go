package enhance

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ocr-enhance/internal/detection"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/params"
)

// createTextPage draws rows of dark word-like bars on white paper.
func createTextPage(width, height int) *image.NRGBA {
	img := imaging.New(width, height, color.White)
	for y := 30; y+5 < height-30; y += 24 {
		for x := 30; x+30 < width-30; x += 42 {
			for dy := 0; dy < 5; dy++ {
				for dx := 0; dx < 30; dx++ {
					img.SetNRGBA(x+dx, y+dy, color.NRGBA{A: 255})
				}
			}
		}
	}
	return img
}

// createPhotographedPage draws a light page on a dark desk, outlined by q.
func createPhotographedPage(width, height int, q detection.Quad) *image.NRGBA {
	img := imaging.New(width, height, color.NRGBA{R: 40, G: 35, B: 30, A: 255})
	c := q.Corners()
	inside := func(x, y int) bool {
		for i := 0; i < 4; i++ {
			a, b := c[i], c[(i+1)%4]
			if (b.X-a.X)*(y-a.Y)-(b.Y-a.Y)*(x-a.X) < 0 {
				return false
			}
		}
		return true
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if inside(x, y) {
				img.SetNRGBA(x, y, color.NRGBA{R: 235, G: 232, B: 225, A: 255})
			}
		}
	}
	return img
}

func mustParams(t *testing.T, opts ...params.Option) params.ParameterSet {
	t.Helper()
	p, err := params.New(opts...)
	if err != nil {
		t.Fatalf("params.New: %v", err)
	}
	return p
}

func TestEnhance_IdentityPreservesTypeAndPixels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 3)
	}
	inputs := map[string]image.Image{
		"rgba":  createGradientImage(16, 8),
		"gray":  gray,
		"nrgba": createTextPage(120, 90),
		"ycbcr": image.NewYCbCr(image.Rect(0, 0, 10, 6), image.YCbCrSubsampleRatio420),
	}

	for name, img := range inputs {
		t.Run(name, func(t *testing.T) {
			out, err := Enhance(img, params.Default())
			if err != nil {
				t.Fatalf("Enhance: %v", err)
			}
			if reflect.TypeOf(out) != reflect.TypeOf(img) {
				t.Errorf("type = %T, want %T", out, img)
			}
			if out == img {
				t.Error("identity returned the input itself, want a copy")
			}
			if out.Bounds() != img.Bounds() {
				t.Errorf("bounds = %v, want %v", out.Bounds(), img.Bounds())
			}
			if d := imgutil.Compare(img, out); d.MeanAbsDiff != 0 {
				t.Errorf("identity changed pixels: mean abs diff %f", d.MeanAbsDiff)
			}
		})
	}
}

func TestEnhance_DoesNotModifyInput(t *testing.T) {
	img := createGradientImage(60, 40)
	orig := append([]uint8(nil), img.Pix...)

	sets := []params.ParameterSet{
		mustParams(t, params.WithBrightness(1.3), params.WithContrast(1.5)),
		mustParams(t, params.WithColor(0), params.WithDenoise(true), params.WithBinarize(true)),
		mustParams(t, params.WithSharpness(2.0), params.WithResize(0.5)),
		mustParams(t, params.WithDeskew(true), params.WithPerspective(true)),
	}
	for _, p := range sets {
		if _, err := Enhance(img, p); err != nil {
			t.Fatalf("Enhance(%s): %v", p, err)
		}
		if !bytes.Equal(img.Pix, orig) {
			t.Fatalf("Enhance(%s) modified its input", p)
		}
	}
}

func TestEnhance_InvalidParameters(t *testing.T) {
	_, err := Enhance(createGradientImage(10, 10), params.ParameterSet{})
	var ipe *params.InvalidParameterError
	if !errors.As(err, &ipe) {
		t.Fatalf("error = %v, want *params.InvalidParameterError", err)
	}
}

func TestEnhance_RejectsOversizedResize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		opts []params.Option
	}{
		{"wide", 10000, 10, []params.Option{params.WithResize(params.MaxResizeFactor)}},
		{"tall", 10, 9000, []params.Option{params.WithResize(7.5)}},
		{"deskew canvas", 6000, 10, []params.Option{params.WithResize(params.MaxResizeFactor), params.WithDeskew(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Enhance(image.NewGray(image.Rect(0, 0, tt.w, tt.h)), mustParams(t, tt.opts...))
			var ipe *params.InvalidParameterError
			if !errors.As(err, &ipe) || ipe.Field != "resize_factor" {
				t.Fatalf("error = %v, want *params.InvalidParameterError on resize_factor", err)
			}
			if out != nil {
				t.Errorf("expected no image, got %v", out.Bounds())
			}
		})
	}
}

func TestCheckOutputSize(t *testing.T) {
	b := image.Rect(0, 0, 6000, 10)
	if err := checkOutputSize(b, mustParams(t, params.WithResize(params.MaxResizeFactor))); err != nil {
		t.Errorf("48000 px side should be accepted: %v", err)
	}
	if err := checkOutputSize(b, params.Default()); err != nil {
		t.Errorf("no resize should be accepted: %v", err)
	}
}

func TestEnhance_UnsupportedImage(t *testing.T) {
	tests := map[string]image.Image{
		"nil":   nil,
		"empty": image.NewRGBA(image.Rect(0, 0, 0, 10)),
		"alpha": image.NewAlpha(image.Rect(0, 0, 5, 5)),
	}
	for name, img := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Enhance(img, params.Default())
			var uie *imgutil.UnsupportedImageError
			if !errors.As(err, &uie) {
				t.Errorf("error = %v, want *imaging.UnsupportedImageError", err)
			}
		})
	}
}

func TestEnhance_GrayscaleByColorZero(t *testing.T) {
	out, err := Enhance(createGradientImage(32, 8), mustParams(t, params.WithColor(0)))
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if s := imgutil.MeanSaturation(out); s != 0 {
		t.Errorf("MeanSaturation = %f, want 0", s)
	}
}

func TestEnhance_BinarizeThenResizeStaysTwoValued(t *testing.T) {
	p := mustParams(t, params.WithBinarize(true), params.WithThreshold(100), params.WithResize(1.7))
	out, err := Enhance(createTextPage(200, 150), p)
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	g, ok := out.(*image.Gray)
	if !ok {
		t.Fatalf("output type = %T, want *image.Gray", out)
	}
	if g.Rect.Dx() != 340 || g.Rect.Dy() != 255 {
		t.Errorf("size = %dx%d, want 340x255", g.Rect.Dx(), g.Rect.Dy())
	}
	for _, v := range g.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel value %d after resize, want 0 or 255", v)
		}
	}
}

func TestEnhance_Deterministic(t *testing.T) {
	img := createTextPage(240, 180)
	p := mustParams(t, params.WithContrast(1.4), params.WithSharpness(1.5), params.WithDeskew(true))

	first, err := Enhance(img, p)
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]image.Image, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Enhance(img, p)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if d := imgutil.Compare(first, r); d.MeanAbsDiff != 0 {
			t.Errorf("run %d differs: mean abs diff %f", i, d.MeanAbsDiff)
		}
	}
}

func TestDeskew_StraightPageUnchanged(t *testing.T) {
	img := createTextPage(300, 240)
	out := Deskew(img)
	if d := imgutil.Compare(img, out); d.MeanAbsDiff != 0 {
		t.Errorf("straight page changed: mean abs diff %f", d.MeanAbsDiff)
	}
}

func TestDeskew_LevelsRotatedPage(t *testing.T) {
	page := createTextPage(400, 300)
	for _, angle := range []float64{4, -6} {
		rotated := imaging.Rotate(page, angle, color.White)
		out := Deskew(rotated)

		if out.Bounds().Size() != rotated.Bounds().Size() {
			t.Errorf("angle %v: size %v, want %v", angle, out.Bounds().Size(), rotated.Bounds().Size())
		}
		after := detection.EstimateSkew(out)
		if math.Abs(after.AngleDegrees) > 1.0 {
			t.Errorf("angle %v: residual skew %v°", angle, after.AngleDegrees)
		}
	}
}

func TestDeskew_UniformUnchanged(t *testing.T) {
	img := imaging.New(50, 50, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	if d := imgutil.Compare(img, Deskew(img)); d.MeanAbsDiff != 0 {
		t.Error("uniform image changed by deskew")
	}
}

func TestPerspective_FeaturelessUnchanged(t *testing.T) {
	img := imaging.New(200, 150, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	out := Perspective(img)
	if out.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), img.Bounds())
	}
	if d := imgutil.Compare(img, out); d.MeanAbsDiff != 0 {
		t.Errorf("featureless image changed: mean abs diff %f", d.MeanAbsDiff)
	}
}

func TestPerspective_WarpsPage(t *testing.T) {
	q := detection.Quad{
		TopLeft:     detection.Point{X: 80, Y: 50},
		TopRight:    detection.Point{X: 330, Y: 70},
		BottomRight: detection.Point{X: 320, Y: 260},
		BottomLeft:  detection.Point{X: 70, Y: 240},
	}
	img := createPhotographedPage(400, 300, q)
	out := Perspective(img)

	b := out.Bounds()
	if math.Abs(float64(b.Dx())-251) > 12 || math.Abs(float64(b.Dy())-190) > 12 {
		t.Errorf("warped size = %dx%d, want about 251x190", b.Dx(), b.Dy())
	}
	mean, _ := lumaStats(out)
	if mean < 200 {
		t.Errorf("warped page mean luminance = %f, want mostly paper (>= 200)", mean)
	}
}

func TestHomography_MapsCorners(t *testing.T) {
	from := [4][2]float64{{0, 0}, {99, 0}, {99, 49}, {0, 49}}
	to := [4][2]float64{{10, 5}, {120, 15}, {115, 70}, {5, 60}}
	m, err := homography(from, to)
	if err != nil {
		t.Fatalf("homography: %v", err)
	}
	for i := range from {
		x, y := m.apply(from[i][0], from[i][1])
		if math.Abs(x-to[i][0]) > 1e-6 || math.Abs(y-to[i][1]) > 1e-6 {
			t.Errorf("corner %d maps to (%f,%f), want (%v,%v)", i, x, y, to[i][0], to[i][1])
		}
	}
}

func TestFlattenShadows_EvensPaper(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 160, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 160; x++ {
			v := uint8(140 + x*100/159)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	out := flattenShadows(img)
	left := out.NRGBAAt(40, 40).R
	right := out.NRGBAAt(120, 40).R
	if left < 230 || right < 230 {
		t.Errorf("paper not flattened: left %d, right %d", left, right)
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name string
		p    params.ParameterSet
		want []string
	}{
		{"identity", params.Default(), nil},
		{
			"everything",
			mustParams(t,
				params.WithPerspective(true), params.WithDeskew(true), params.WithColor(0),
				params.WithDenoise(true), params.WithBrightness(1.1), params.WithContrast(1.2),
				params.WithSharpness(1.3), params.WithBinarize(true), params.WithResize(2)),
			[]string{StagePerspective, StageDeskew, StageGrayscale, StageDenoise, StageBrightness,
				StageContrast, StageSharpness, StageBinarize, StageResize},
		},
		{
			"saturation",
			mustParams(t, params.WithColor(1.5), params.WithResize(1.0)),
			[]string{StageSaturation},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plan(tt.p); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan = %v, want %v", got, tt.want)
			}
		})
	}
}
