package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Colors used by the drawing helpers.
var (
	CanvasColor = color.NRGBA{240, 240, 240, 255}
	TextColor   = color.NRGBA{20, 20, 20, 255}
	LabelColor  = color.NRGBA{255, 255, 255, 255}
	LabelBack   = color.NRGBA{0, 0, 0, 180}
)

const (
	gridMargin  = 10
	labelHeight = 20
)

// Cell is one labelled tile of a grid.
type Cell struct {
	Image image.Image
	Label string
}

// ComposeGrid lays cells out row by row, cols per row, each fitted inside a
// cellW x cellH box with its label underneath.
func ComposeGrid(cells []Cell, cols, cellW, cellH int) *image.NRGBA {
	if cols < 1 {
		cols = 1
	}
	rows := (len(cells) + cols - 1) / cols
	if rows == 0 {
		rows = 1
	}
	width := cols*(cellW+gridMargin) + gridMargin
	height := rows*(cellH+labelHeight+gridMargin) + gridMargin
	canvas := imaging.New(width, height, CanvasColor)

	for i, c := range cells {
		x := gridMargin + (i%cols)*(cellW+gridMargin)
		y := gridMargin + (i/cols)*(cellH+labelHeight+gridMargin)
		if c.Image != nil {
			canvas = imaging.Paste(canvas, FitInto(c.Image, cellW, cellH, CanvasColor), image.Pt(x, y))
		}
		DrawLabel(canvas, x, y+cellH+3, c.Label, LabelColor, LabelBack)
	}
	return canvas
}

// TextWidth returns the pixel width of s in the label face.
func TextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// DrawText draws s with its top-left corner at (x, y).
func DrawText(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)
}

// DrawLabel draws s on a filled background box whose top-left corner is
// (x, y). An empty label draws nothing.
func DrawLabel(dst draw.Image, x, y int, s string, fg, bg color.Color) {
	if s == "" {
		return
	}
	box := image.Rect(x, y, x+TextWidth(s)+6, y+basicfont.Face7x13.Height+2)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(bg), image.Point{}, draw.Over)
	DrawText(dst, x+3, y+1, s, fg)
}
