package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FitInto scales img down (never up) to fit a w x h box, keeping its
// aspect ratio, and centres it on a box filled with bg.
func FitInto(img image.Image, w, h int, bg color.Color) *image.NRGBA {
	thumb := imaging.Fit(img, w, h, imaging.Lanczos)
	tb := thumb.Bounds()
	box := imaging.New(w, h, bg)
	return imaging.Overlay(box, thumb, image.Pt((w-tb.Dx())/2, (h-tb.Dy())/2), 1.0)
}

// MatchSize returns a and b scaled to the smaller of their two sizes so
// they can be compared pixel by pixel. Images that already match are
// returned as-is.
func MatchSize(a, b image.Image) (image.Image, image.Image) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() == bb.Dx() && ab.Dy() == bb.Dy() {
		return a, b
	}
	w := minInt(ab.Dx(), bb.Dx())
	h := minInt(ab.Dy(), bb.Dy())
	if ab.Dx() != w || ab.Dy() != h {
		a = imaging.Resize(a, w, h, imaging.Lanczos)
	}
	if bb.Dx() != w || bb.Dy() != h {
		b = imaging.Resize(b, w, h, imaging.Lanczos)
	}
	return a, b
}

// ScaleToHeight resizes img to height h keeping its aspect ratio.
func ScaleToHeight(img image.Image, h int) *image.NRGBA {
	return imaging.Resize(img, 0, h, imaging.Lanczos)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
