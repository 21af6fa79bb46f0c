package detection

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

const (
	skewMaxSide     = 800
	skewRange       = 15.0
	skewCoarseStep  = 0.5
	skewFineStep    = 0.1
	minInkPixels    = 50
	minSeparability = 0.3
)

// Skew is the result of skew estimation.
type Skew struct {
	// AngleDegrees is the counter-clockwise tilt of the text lines. Rotating
	// the image by -AngleDegrees straightens it.
	AngleDegrees float64 `json:"angle_degrees"`

	// Reliable is false when the image has no usable ink (uniform, photo-like
	// or empty), in which case AngleDegrees is 0.
	Reliable bool `json:"reliable"`

	// InkPixels is the number of pixels that voted, after downscaling.
	InkPixels int `json:"ink_pixels"`
}

// EstimateSkew finds the dominant text-line angle within ±15°.
//
// # Algorithm
//
//  1. Downscale so the longest side is at most 800 pixels
//  2. Split luminance with Otsu; the minority class is ink
//  3. For each candidate angle α, every ink pixel votes for the line offset
//     rho = x·sin α + y·cos α, a Hough accumulator restricted to
//     θ = 90° - α
//  4. Score each angle by the sum of squared votes: rows of text
//     concentrate votes into few bins exactly when α matches their tilt
//  5. Search at 0.5° steps, then refine ±0.5° around the best at 0.1°
//
// Candidates are visited from 0° outward and only a strictly better score
// replaces the current best, so ties resolve to the smaller angle and the
// result is deterministic.
func EstimateSkew(img image.Image) Skew {
	small := image.Image(img)
	b := img.Bounds()
	if b.Dx() > skewMaxSide || b.Dy() > skewMaxSide {
		small = imaging.Fit(img, skewMaxSide, skewMaxSide, imaging.Box)
	}

	plane := imgutil.LuminancePlane(small)
	hist := imgutil.Histogram(plane)
	t, sep := imgutil.Otsu(hist)
	if sep < minSeparability {
		return Skew{}
	}

	dark := 0
	for i := 0; i <= t; i++ {
		dark += hist[i]
	}
	total := plane.Rect.Dx() * plane.Rect.Dy()
	inkIsDark := dark*2 <= total

	w, h := plane.Rect.Dx(), plane.Rect.Dy()
	ink := make([]image.Point, 0, minInt(dark, total-dark))
	for y := 0; y < h; y++ {
		for x, v := range plane.Pix[y*plane.Stride : y*plane.Stride+w] {
			if (int(v) <= t) == inkIsDark {
				ink = append(ink, image.Pt(x, y))
			}
		}
	}
	if len(ink) < minInkPixels {
		return Skew{InkPixels: len(ink)}
	}

	diag := int(math.Ceil(math.Hypot(float64(w), float64(h))))
	acc := make([]int, 2*diag+3)

	best, bestScore := 0.0, projectionScore(ink, 0, acc, diag)
	for step := skewCoarseStep; step <= skewRange+1e-9; step += skewCoarseStep {
		for _, a := range []float64{step, -step} {
			if s := projectionScore(ink, a, acc, diag); s > bestScore {
				best, bestScore = a, s
			}
		}
	}

	coarse := best
	for step := skewFineStep; step < skewCoarseStep-1e-9; step += skewFineStep {
		for _, a := range []float64{coarse + step, coarse - step} {
			if math.Abs(a) > skewRange {
				continue
			}
			if s := projectionScore(ink, a, acc, diag); s > bestScore {
				best, bestScore = a, s
			}
		}
	}

	return Skew{
		AngleDegrees: math.Round(best*10) / 10,
		Reliable:     true,
		InkPixels:    len(ink),
	}
}

// projectionScore accumulates the ink pixels along lines tilted by
// angleDeg and returns the sum of squared bin counts. acc is scratch space
// of length 2*diag+3.
func projectionScore(ink []image.Point, angleDeg float64, acc []int, diag int) float64 {
	for i := range acc {
		acc[i] = 0
	}
	rad := angleDeg * math.Pi / 180.0
	sinA, cosA := math.Sin(rad), math.Cos(rad)
	for _, p := range ink {
		rho := float64(p.X)*sinA + float64(p.Y)*cosA
		acc[int(math.Round(rho))+diag+1]++
	}
	var score float64
	for _, n := range acc {
		score += float64(n) * float64(n)
	}
	return score
}
