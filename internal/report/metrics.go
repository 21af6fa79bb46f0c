package report

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

// Histograms holds per-level pixel counts for the luminance and the three
// color channels.
type Histograms struct {
	Luma [256]int `json:"-"`
	R    [256]int `json:"-"`
	G    [256]int `json:"-"`
	B    [256]int `json:"-"`
}

// Metrics compares an original image with its enhanced version. Means and
// standard deviations are luminance on the 0-255 scale.
type Metrics struct {
	OriginalMean   float64 `json:"original_mean"`
	OriginalStdDev float64 `json:"original_std_dev"`
	EnhancedMean   float64 `json:"enhanced_mean"`
	EnhancedStdDev float64 `json:"enhanced_std_dev"`

	MeanAbsDiff   float64 `json:"mean_abs_diff"`
	ChangedRatio  float64 `json:"changed_ratio"`
	PixelsChanged int     `json:"pixels_changed"`
	SameSize      bool    `json:"same_size"`

	OriginalHist Histograms `json:"-"`
	EnhancedHist Histograms `json:"-"`
}

// Measure computes Metrics for an original/enhanced pair. Pixel
// differences are taken after scaling both to the smaller size.
func Measure(original, enhanced image.Image) Metrics {
	m := Metrics{
		OriginalHist: histograms(original),
		EnhancedHist: histograms(enhanced),
	}
	m.OriginalMean, m.OriginalStdDev = imgutil.HistogramStats(m.OriginalHist.Luma)
	m.EnhancedMean, m.EnhancedStdDev = imgutil.HistogramStats(m.EnhancedHist.Luma)

	d := imgutil.Compare(original, enhanced)
	m.MeanAbsDiff = d.MeanAbsDiff
	m.ChangedRatio = d.ChangedRatio
	m.PixelsChanged = d.PixelsChanged
	m.SameSize = d.SameSize
	return m
}

func histograms(img image.Image) Histograms {
	var h Histograms
	h.Luma = imgutil.Histogram(imgutil.LuminancePlane(img))

	rgba := histogram.NewRGBAHistogram(img)
	copy(h.R[:], rgba.R.Bins)
	copy(h.G[:], rgba.G.Bins)
	copy(h.B[:], rgba.B.Bins)
	return h
}
