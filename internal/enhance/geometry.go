package enhance

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/ocr-enhance/internal/detection"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

// MinDeskewAngle is the smallest estimated tilt, in degrees, that Deskew
// corrects. Smaller angles are left alone.
const MinDeskewAngle = 0.5

const (
	shadowScale      = 8
	shadowDilate     = 2
	shadowBlurRadius = 3
)

// Deskew estimates the text-line angle and rotates the image to level it.
// The output keeps the input dimensions; corners exposed by the rotation
// are filled with white. When the estimate is unreliable or below
// MinDeskewAngle a copy of the input is returned.
func Deskew(img image.Image) image.Image {
	skew := detection.EstimateSkew(img)
	if !skew.Reliable || math.Abs(skew.AngleDegrees) < MinDeskewAngle {
		return imgutil.Clone(img)
	}
	b := img.Bounds()
	rotated := imaging.Rotate(img, -skew.AngleDegrees, color.White)
	return imaging.CropCenter(rotated, b.Dx(), b.Dy())
}

// Perspective finds the page boundary, warps it to an upright rectangle and
// flattens uneven lighting across the result. Without a reliable page
// boundary a copy of the input is returned.
func Perspective(img image.Image) image.Image {
	q, ok := detection.FindDocumentQuad(img)
	if !ok {
		return imgutil.Clone(img)
	}
	warped, err := warpQuad(img, q)
	if err != nil {
		return imgutil.Clone(img)
	}
	return flattenShadows(warped)
}

// warpQuad maps the quad onto a rectangle whose sides are the longer of
// each pair of opposite quad sides.
func warpQuad(img image.Image, q detection.Quad) (*image.NRGBA, error) {
	dist := func(a, b detection.Point) float64 {
		return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
	}
	w := int(math.Round(math.Max(dist(q.TopLeft, q.TopRight), dist(q.BottomLeft, q.BottomRight))))
	h := int(math.Round(math.Max(dist(q.TopLeft, q.BottomLeft), dist(q.TopRight, q.BottomRight))))
	if w < 2 || h < 2 {
		return nil, errDegenerateQuad
	}

	dst := [4][2]float64{{0, 0}, {float64(w - 1), 0}, {float64(w - 1), float64(h - 1)}, {0, float64(h - 1)}}
	var srcPts [4][2]float64
	for i, c := range q.Corners() {
		srcPts[i] = [2]float64{float64(c.X), float64(c.Y)}
	}
	hm, err := homography(dst, srcPts)
	if err != nil {
		return nil, err
	}

	src := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := hm.apply(float64(x), float64(y))
			out.SetNRGBA(x, y, sampleBilinear(src, sx, sy))
		}
	}
	return out, nil
}

var errDegenerateQuad = errors.New("perspective: degenerate page boundary")

// projective is a 3x3 homography with h[8] fixed at 1.
type projective [9]float64

func (m projective) apply(x, y float64) (float64, float64) {
	d := m[6]*x + m[7]*y + 1
	return (m[0]*x + m[1]*y + m[2]) / d, (m[3]*x + m[4]*y + m[5]) / d
}

// homography solves for the projective map taking each from[i] to to[i].
func homography(from, to [4][2]float64) (projective, error) {
	a := mat.NewDense(8, 8, nil)
	bv := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		u, v := from[i][0], from[i][1]
		x, y := to[i][0], to[i][1]
		a.SetRow(2*i, []float64{u, v, 1, 0, 0, 0, -u * x, -v * x})
		a.SetRow(2*i+1, []float64{0, 0, 0, u, v, 1, -u * y, -v * y})
		bv.SetVec(2*i, x)
		bv.SetVec(2*i+1, y)
	}
	var sol mat.VecDense
	if err := sol.SolveVec(a, bv); err != nil {
		return projective{}, err
	}
	var m projective
	for i := 0; i < 8; i++ {
		m[i] = sol.AtVec(i)
	}
	m[8] = 1
	return m, nil
}

func sampleBilinear(src *image.NRGBA, x, y float64) color.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	x = math.Max(0, math.Min(x, float64(w-1)))
	y = math.Max(0, math.Min(y, float64(h-1)))
	x0, y0 := int(x), int(y)
	x1, y1 := minInt(x0+1, w-1), minInt(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	p := func(px, py int) []uint8 {
		i := py*src.Stride + px*4
		return src.Pix[i : i+4]
	}
	p00, p10, p01, p11 := p(x0, y0), p(x1, y0), p(x0, y1), p(x1, y1)

	var c [4]uint8
	for k := 0; k < 4; k++ {
		top := float64(p00[k])*(1-fx) + float64(p10[k])*fx
		bot := float64(p01[k])*(1-fx) + float64(p11[k])*fx
		c[k] = clampByte(top*(1-fy) + bot*fy + 0.5)
	}
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// flattenShadows divides every channel by a smooth estimate of the paper
// color, so paper becomes uniformly white while ink keeps its contrast.
// The estimate is built at reduced scale: a dilation removes dark strokes
// and a Gaussian blur smooths what is left.
func flattenShadows(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	sw, sh := maxInt(1, w/shadowScale), maxInt(1, h/shadowScale)
	small := imaging.Resize(img, sw, sh, imaging.Box)
	paper := blur.Gaussian(effect.Dilate(small, shadowDilate), shadowBlurRadius)
	bg := imaging.Resize(paper, w, h, imaging.Linear)

	out := image.NewNRGBA(img.Rect)
	for i := 0; i < len(img.Pix); i += 4 {
		for k := 0; k < 3; k++ {
			p := float64(bg.Pix[i+k])
			if p < 1 {
				p = 1
			}
			out.Pix[i+k] = clampByte(float64(img.Pix[i+k])*255/p + 0.5)
		}
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
