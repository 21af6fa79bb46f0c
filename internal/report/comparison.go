package report

import (
	"image"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

// DefaultTitle is used by Comparison when title is empty.
const DefaultTitle = "Image Enhancement Comparison"

const (
	compMargin      = 20
	compTitleHeight = 40
	compLineHeight  = 20
	compMaxSide     = 1200
)

// Comparison renders the original and enhanced images side by side under
// title, with a parameter listing below them. Images of different sizes are
// both scaled to the smaller size; very large images are reduced so the
// longer side is at most 1200 pixels.
func Comparison(r EnhancementReport, title string) *image.NRGBA {
	if title == "" {
		title = DefaultTitle
	}
	orig, enh := imgutil.MatchSize(r.Original, r.Enhanced)
	if b := orig.Bounds(); b.Dx() > compMaxSide || b.Dy() > compMaxSide {
		orig = imaging.Fit(orig, compMaxSide, compMaxSide, imaging.Lanczos)
		enh = imaging.Fit(enh, compMaxSide, compMaxSide, imaging.Lanczos)
	}

	w, h := orig.Bounds().Dx(), orig.Bounds().Dy()
	lines := parameterLines(r.Params)
	paramsHeight := len(lines)*compLineHeight + compMargin

	width := 2*w + 3*compMargin
	if tw := imgutil.TextWidth(title) + 2*compMargin; tw > width {
		width = tw
	}
	height := h + 2*compMargin + compTitleHeight + paramsHeight
	canvas := imaging.New(width, height, imgutil.CanvasColor)

	top := compMargin + compTitleHeight
	canvas = imaging.Paste(canvas, orig, image.Pt(compMargin, top))
	canvas = imaging.Paste(canvas, enh, image.Pt(w+2*compMargin, top))

	imgutil.DrawText(canvas, (width-imgutil.TextWidth(title))/2, compMargin/2, title, imgutil.TextColor)
	drawCentered(canvas, compMargin+w/2, top-18, "Original")
	drawCentered(canvas, 2*compMargin+w+w/2, top-18, "Enhanced")

	y := top + h + 10
	for _, line := range lines {
		imgutil.DrawText(canvas, compMargin, y, line, imgutil.TextColor)
		y += compLineHeight
	}
	return canvas
}

func drawCentered(dst *image.NRGBA, cx, y int, s string) {
	imgutil.DrawText(dst, cx-imgutil.TextWidth(s)/2, y, s, imgutil.TextColor)
}
