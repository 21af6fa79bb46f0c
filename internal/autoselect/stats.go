package autoselect

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/ocr-enhance/internal/detection"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

// analysisMaxSide bounds the image used for the pixel statistics. Skew and
// quad detection downscale on their own.
const analysisMaxSide = 1200

// flatPercentile is the Sobel magnitude percentile below which a pixel
// counts as flat for noise estimation.
const flatPercentile = 0.90

// Stats are the image statistics the selector decides from. Luminance
// values are normalised to [0,1]; NoiseSigma and LaplacianVariance are on
// the 0-255 scale.
type Stats struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`

	// Spread is the 2nd to 98th percentile luminance range divided by 255.
	Spread float64 `json:"spread"`

	NoiseSigma        float64 `json:"noise_sigma"`
	LaplacianVariance float64 `json:"laplacian_variance"`
	Saturation        float64 `json:"saturation"`

	OtsuThreshold int     `json:"otsu_threshold"`
	Separability  float64 `json:"separability"`
	EdgeDensity   float64 `json:"edge_density"`

	Skew    detection.Skew        `json:"skew"`
	HasQuad bool                  `json:"has_quad"`
	Kind    detection.ContentKind `json:"kind"`
}

// Analyze computes Stats for img. It fails only with an
// *imaging.UnsupportedImageError.
func Analyze(img image.Image) (Stats, error) {
	if err := imgutil.Validate(img); err != nil {
		return Stats{}, err
	}

	b := img.Bounds()
	work := img
	if b.Dx() > analysisMaxSide || b.Dy() > analysisMaxSide {
		work = imaging.Fit(img, analysisMaxSide, analysisMaxSide, imaging.Box)
	}

	plane := imgutil.LuminancePlane(work)
	hist := imgutil.Histogram(plane)
	mean, std := imgutil.HistogramStats(hist)
	t, sep := imgutil.Otsu(hist)

	s := Stats{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Mean:          mean / 255,
		StdDev:        std / 255,
		Spread:        float64(imgutil.Percentile(hist, 0.98)-imgutil.Percentile(hist, 0.02)) / 255,
		Saturation:    imgutil.MeanSaturation(work),
		OtsuThreshold: t,
		Separability:  sep,
	}
	if std == 0 {
		return s, nil
	}

	s.NoiseSigma = noiseSigma(plane)
	s.LaplacianVariance = laplacianVariance(plane)
	s.EdgeDensity = imgutil.EdgeDensity(imgutil.Canny(work, 50, 150))
	s.Skew = detection.EstimateSkew(img)
	_, s.HasQuad = detection.FindDocumentQuad(img)
	s.Kind = detection.Classify(detection.ContentFeatures{
		Saturation:   s.Saturation,
		Separability: s.Separability,
		MeanLuma:     s.Mean,
		EdgeDensity:  s.EdgeDensity,
	})
	return s, nil
}

// noiseSigma estimates the standard deviation of additive Gaussian noise
// with Immerkær's method: the image is convolved with the difference of
// two Laplacians, which cancels smooth structure, and
//
//	sigma = sqrt(pi/2) * sum|I*N| / (6 * n)
//
// The sum is restricted to flat pixels so text strokes and object edges
// are not mistaken for noise.
func noiseSigma(plane *image.Gray) float64 {
	w, h := plane.Rect.Dx(), plane.Rect.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	mag := imgutil.SobelMagnitude(plane)
	sorted := append([]float64(nil), mag...)
	sort.Float64s(sorted)
	cutoff := stat.Quantile(flatPercentile, stat.Empirical, sorted, nil)

	at := func(x, y int) float64 { return float64(plane.Pix[y*plane.Stride+x]) }
	var sum float64
	n := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if mag[y*w+x] > cutoff {
				continue
			}
			v := at(x-1, y-1) - 2*at(x, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 4*at(x, y) - 2*at(x+1, y) +
				at(x-1, y+1) - 2*at(x, y+1) + at(x+1, y+1)
			sum += math.Abs(v)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(math.Pi/2) * sum / (6 * float64(n))
}

// laplacianVariance is the variance of the 4-neighbour Laplacian over the
// interior pixels; low values indicate a blurry image.
func laplacianVariance(plane *image.Gray) float64 {
	w, h := plane.Rect.Dx(), plane.Rect.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	data := make([]float64, 0, (w-2)*(h-2))
	at := func(x, y int) float64 { return float64(plane.Pix[y*plane.Stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			data = append(data, -4*at(x, y)+at(x, y-1)+at(x, y+1)+at(x-1, y)+at(x+1, y))
		}
	}
	return stat.Variance(data, nil)
}
