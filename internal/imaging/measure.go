package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// changedLevel is the mean per-channel difference above which a pixel
// counts as changed.
const changedLevel = 10

// Difference summarises how two images differ pixel by pixel.
type Difference struct {
	SameSize        bool    `json:"same_size"`
	TotalPixels     int     `json:"total_pixels"`
	PixelsChanged   int     `json:"pixels_changed"`
	ChangedRatio    float64 `json:"changed_ratio"`
	MeanAbsDiff     float64 `json:"mean_abs_diff"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Compare measures the difference between a and b. Images of different
// sizes are first scaled to the smaller size with MatchSize.
func Compare(a, b image.Image) *Difference {
	ab, bb := a.Bounds(), b.Bounds()
	sameSize := ab.Dx() == bb.Dx() && ab.Dy() == bb.Dy()
	a, b = MatchSize(a, b)

	na, nb := imaging.Clone(a), imaging.Clone(b)
	w, h := na.Rect.Dx(), na.Rect.Dy()
	total := w * h
	if total == 0 {
		return &Difference{SameSize: sameSize, SimilarityScore: 1}
	}

	changed := 0
	var sum float64
	for y := 0; y < h; y++ {
		ra := na.Pix[y*na.Stride : y*na.Stride+w*4]
		rb := nb.Pix[y*nb.Stride : y*nb.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			diff := float64(absDiff(ra[x], rb[x])+absDiff(ra[x+1], rb[x+1])+absDiff(ra[x+2], rb[x+2])) / 3.0
			sum += diff
			if diff > changedLevel {
				changed++
			}
		}
	}

	ratio := float64(changed) / float64(total)
	return &Difference{
		SameSize:        sameSize,
		TotalPixels:     total,
		PixelsChanged:   changed,
		ChangedRatio:    math.Round(ratio*1000) / 1000,
		MeanAbsDiff:     math.Round(sum/float64(total)*100) / 100,
		SimilarityScore: math.Round((1-ratio)*1000) / 1000,
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
