package report

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

// PlotTitle heads every metrics plot.
const PlotTitle = "Image Enhancement Analysis"

const (
	plotPanelW   = 320
	plotPanelH   = 240
	plotMargin   = 20
	plotHeader   = 36
	plotLabel    = 18
	plotFooter   = 44
	plotOpacity  = 0.7
	plotCols     = 3
	plotRows     = 2
	histogramMax = 256
)

var (
	panelBack    = color.NRGBA{255, 255, 255, 255}
	axisColor    = color.NRGBA{120, 120, 120, 255}
	originalBlue = color.NRGBA{40, 90, 220, 255}
	enhancedRed  = color.NRGBA{220, 50, 40, 255}
	enhancedGray = color.NRGBA{90, 90, 90, 255}
	captionBack  = color.NRGBA{255, 200, 120, 255}
	channelRed   = color.NRGBA{220, 40, 40, 255}
	channelGreen = color.NRGBA{40, 170, 60, 255}
	channelBlue  = color.NRGBA{40, 70, 220, 255}
)

type series struct {
	bins  [256]int
	color color.NRGBA
}

type panel struct {
	title string
	body  image.Image
}

// Plot renders the metrics artifact for r: the two images, their overlaid
// luminance histograms, the per-channel histograms of both, and the
// "Applied: ..." caption from Describe.
func Plot(r EnhancementReport) *image.NRGBA {
	m := Measure(r.Original, r.Enhanced)
	o, e := m.OriginalHist, m.EnhancedHist

	panels := []panel{
		{"Original Image", imgutil.FitInto(r.Original, plotPanelW, plotPanelH, panelBack)},
		{"Enhanced Image", imgutil.FitInto(r.Enhanced, plotPanelW, plotPanelH, panelBack)},
		{"Grayscale Histogram", histogramPanel(series{o.Luma, originalBlue}, series{e.Luma, enhancedRed})},
		{"Red Channel", histogramPanel(series{o.R, channelRed}, series{e.R, enhancedGray})},
		{"Green Channel", histogramPanel(series{o.G, channelGreen}, series{e.G, enhancedGray})},
		{"Blue Channel", histogramPanel(series{o.B, channelBlue}, series{e.B, enhancedGray})},
	}

	width := plotCols*(plotPanelW+plotMargin) + plotMargin
	height := plotHeader + plotRows*(plotLabel+plotPanelH+plotMargin) + plotFooter
	canvas := imaging.New(width, height, imgutil.CanvasColor)

	imgutil.DrawText(canvas, (width-imgutil.TextWidth(PlotTitle))/2, 12, PlotTitle, imgutil.TextColor)

	for i, p := range panels {
		x := plotMargin + (i%plotCols)*(plotPanelW+plotMargin)
		y := plotHeader + (i/plotCols)*(plotLabel+plotPanelH+plotMargin)
		drawCentered(canvas, x+plotPanelW/2, y, p.title)
		canvas = imaging.Paste(canvas, p.body, image.Pt(x, y+plotLabel))
	}

	legendY := plotHeader + plotLabel + plotPanelH + 4
	legendX := plotMargin + 2*(plotPanelW+plotMargin)
	drawLegend(canvas, legendX, legendY, "Original", originalBlue)
	drawLegend(canvas, legendX+110, legendY, "Enhanced", enhancedRed)

	caption := Describe(r.Params)
	cx := (width - imgutil.TextWidth(caption) - 6) / 2
	if cx < 0 {
		cx = 0
	}
	imgutil.DrawLabel(canvas, cx, height-plotFooter+14, caption, imgutil.TextColor, captionBack)
	return canvas
}

// histogramPanel draws each series as bars scaled to the largest bin of
// all series and composites them with partial opacity, so overlapping
// distributions stay visible.
func histogramPanel(all ...series) *image.NRGBA {
	w, h := plotPanelW, plotPanelH
	out := imaging.New(w, h, panelBack)

	peak := 1
	for _, s := range all {
		for _, n := range s.bins {
			if n > peak {
				peak = n
			}
		}
	}

	for _, s := range all {
		layer := image.NewNRGBA(image.Rect(0, 0, w, h))
		for bin, n := range s.bins {
			if n == 0 {
				continue
			}
			x0 := bin * w / histogramMax
			x1 := (bin + 1) * w / histogramMax
			if x1 <= x0 {
				x1 = x0 + 1
			}
			barH := n * (h - 1) / peak
			if barH == 0 {
				barH = 1
			}
			draw.Draw(layer, image.Rect(x0, h-barH, x1, h), image.NewUniform(s.color), image.Point{}, draw.Src)
		}
		out = imaging.Overlay(out, layer, image.Pt(0, 0), plotOpacity)
	}

	draw.Draw(out, image.Rect(0, h-1, w, h), image.NewUniform(axisColor), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, 1, h), image.NewUniform(axisColor), image.Point{}, draw.Src)
	return out
}

func drawLegend(dst *image.NRGBA, x, y int, label string, c color.NRGBA) {
	draw.Draw(dst, image.Rect(x, y+3, x+10, y+13), image.NewUniform(c), image.Point{}, draw.Src)
	imgutil.DrawText(dst, x+14, y, label, imgutil.TextColor)
}
