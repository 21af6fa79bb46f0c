package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// Luma returns the BT.601 luminance of 8-bit non-premultiplied r, g, b.
func Luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// LuminancePlane returns the luminance of every pixel of img as a gray
// image anchored at (0,0).
func LuminancePlane(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+w], g.Pix[y*g.Stride:y*g.Stride+w])
		}
		return out
	}

	src := imaging.Clone(img)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := 0; x < w; x++ {
			dst[x] = Luma(row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}

// Histogram counts the pixels of a luminance plane per level.
func Histogram(plane *image.Gray) [256]int {
	var hist [256]int
	w, h := plane.Rect.Dx(), plane.Rect.Dy()
	for y := 0; y < h; y++ {
		for _, v := range plane.Pix[y*plane.Stride : y*plane.Stride+w] {
			hist[v]++
		}
	}
	return hist
}

// HistogramStats returns the mean and standard deviation of the levels
// described by hist. Both are 0 for fewer than two pixels.
func HistogramStats(hist [256]int) (mean, std float64) {
	levels := make([]float64, 256)
	weights := make([]float64, 256)
	var total float64
	for i, n := range hist {
		levels[i] = float64(i)
		weights[i] = float64(n)
		total += float64(n)
	}
	if total == 0 {
		return 0, 0
	}
	if total < 2 {
		return stat.Mean(levels, weights), 0
	}
	return stat.MeanStdDev(levels, weights)
}

// Percentile returns the smallest level at or below which at least q (0..1)
// of the pixels fall.
func Percentile(hist [256]int, q float64) int {
	total := 0
	for _, n := range hist {
		total += n
	}
	if total == 0 {
		return 0
	}
	target := q * float64(total)
	cum := 0
	for level, n := range hist {
		cum += n
		if float64(cum) >= target {
			return level
		}
	}
	return 255
}

// Otsu picks the split level t that maximises the between-class variance
// of the two classes [0,t] and [t+1,255].
//
// Separability is the between-class variance divided by the total
// variance, in [0,1]. It is near 1 for cleanly bimodal images such as
// printed pages and 0 for uniform images, in which case t is the single
// occupied level.
func Otsu(hist [256]int) (t int, separability float64) {
	var total, sumAll float64
	for i, n := range hist {
		total += float64(n)
		sumAll += float64(i) * float64(n)
	}
	if total == 0 {
		return 0, 0
	}
	mean := sumAll / total

	var totalVar float64
	for i, n := range hist {
		d := float64(i) - mean
		totalVar += d * d * float64(n)
	}
	totalVar /= total
	if totalVar == 0 {
		return int(mean + 0.5), 0
	}

	var w0, sum0, best float64
	for i := 0; i < 255; i++ {
		w0 += float64(hist[i])
		if w0 == 0 {
			continue
		}
		w1 := total - w0
		if w1 == 0 {
			break
		}
		sum0 += float64(i) * float64(hist[i])
		m0 := sum0 / w0
		m1 := (sumAll - sum0) / w1
		between := (w0 / total) * (w1 / total) * (m0 - m1) * (m0 - m1)
		if between > best {
			best = between
			t = i
		}
	}
	return t, best / totalVar
}

// MeanSaturation returns the average HSV saturation of img in [0,1].
// Fully transparent pixels are skipped. Large images are sampled on a
// regular grid of at most about 250k pixels.
func MeanSaturation(img image.Image) float64 {
	b := img.Bounds()
	step := 1
	for (b.Dx()/step)*(b.Dy()/step) > 250000 {
		step++
	}

	var sum float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
			_, s, _ := cf.Hsv()
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
