package enhance

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

// Grayscale reduces img to BT.601 luminance. Applying it twice equals
// applying it once.
func Grayscale(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// Denoise applies a 3x3 median filter. Dimensions are preserved.
func Denoise(img image.Image) image.Image {
	return effect.Median(img, 1)
}

// Brightness scales every color channel by factor.
func Brightness(img image.Image, factor float64) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: scaleChannel(c.R, factor),
			G: scaleChannel(c.G, factor),
			B: scaleChannel(c.B, factor),
			A: c.A,
		}
	})
}

func scaleChannel(v uint8, factor float64) uint8 {
	return clampByte(float64(v)*factor + 0.5)
}

func clampByte(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return uint8(f)
}

// Contrast stretches levels around mid-gray so the transfer curve has
// slope factor there.
//
// imaging.AdjustContrast takes a percentage: p <= 0 gives slope 1+p/100,
// p > 0 gives slope 100/(100-p). The factor is mapped onto whichever
// branch applies.
func Contrast(img image.Image, factor float64) image.Image {
	return imaging.AdjustContrast(img, contrastPercentage(factor))
}

func contrastPercentage(factor float64) float64 {
	if factor <= 1 {
		return (factor - 1) * 100
	}
	return (1 - 1/factor) * 100
}

// Saturation moves every pixel from its own gray level toward (factor < 1)
// or beyond (factor > 1) its color. Factor 0 yields gray.
func Saturation(img image.Image, factor float64) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		g := float64(imgutil.Luma(c.R, c.G, c.B)) / 255
		gray := colorful.Color{R: g, G: g, B: g}
		orig := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
		r, gg, b := gray.BlendRgb(orig, factor).Clamped().RGB255()
		return color.NRGBA{R: r, G: gg, B: b, A: c.A}
	})
}

// Sharpness sharpens with an unsharp mask for factor > 1 and softens with a
// Gaussian blur for factor < 1. The sigma grows linearly with the distance
// from 1.
func Sharpness(img image.Image, factor float64) image.Image {
	switch {
	case factor > 1:
		return imaging.Sharpen(img, 2*(factor-1))
	case factor < 1:
		return imaging.Blur(img, 2*(1-factor))
	}
	return imgutil.Clone(img)
}

// Binarize maps every pixel with luminance >= threshold to 255 and every
// other pixel to 0. Applying it twice equals applying it once.
func Binarize(img image.Image, threshold int) *image.Gray {
	plane := imgutil.LuminancePlane(img)
	for i, v := range plane.Pix {
		if int(v) >= threshold {
			plane.Pix[i] = 255
		} else {
			plane.Pix[i] = 0
		}
	}
	return plane
}

// MaxOutputSide is the largest width or height Resize produces.
const MaxOutputSide = 65535

// Resize scales img by factor with Lanczos resampling. Each side is kept in
// [1, MaxOutputSide].
func Resize(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	return imaging.Resize(img, scaledSide(b.Dx(), factor), scaledSide(b.Dy(), factor), imaging.Lanczos)
}

func scaledSide(n int, factor float64) int {
	return int(math.Min(MaxOutputSide, math.Max(1, math.Round(float64(n)*factor))))
}
