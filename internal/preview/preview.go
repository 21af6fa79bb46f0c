// Package preview renders the same image under several enhancement
// settings in one labelled grid, so a user can pick settings by eye.
package preview

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/ocr-enhance/internal/autoselect"
	"github.com/ironsheep/ocr-enhance/internal/enhance"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/logger"
	"github.com/ironsheep/ocr-enhance/internal/params"
)

// Grid layout.
const (
	Columns    = 3
	CellWidth  = 300
	CellHeight = 300
)

// Variant labels in grid order.
const (
	LabelOriginal        = "original"
	LabelAuto            = "auto"
	LabelDenoise         = "denoise"
	LabelBinarize        = "binarize"
	LabelBrightContrast  = "bright+contrast"
	LabelContrastSharpen = "contrast+sharpen"
)

// Variant is one enhanced rendition shown in the grid.
type Variant struct {
	Label  string
	Params params.ParameterSet
	Image  image.Image
}

// Grid is the composed preview and the variants it shows.
type Grid struct {
	Image    *image.NRGBA
	Variants []Variant
}

// fixedVariants are the hand-picked settings shown next to the original
// and the auto-selected one.
func fixedVariants() ([]Variant, error) {
	specs := []struct {
		label string
		opts  []params.Option
	}{
		{LabelDenoise, []params.Option{params.WithDenoise(true)}},
		{LabelBinarize, []params.Option{params.WithBinarize(true)}},
		{LabelBrightContrast, []params.Option{params.WithBrightness(1.2), params.WithContrast(1.2)}},
		{LabelContrastSharpen, []params.Option{params.WithContrast(1.5), params.WithSharpness(1.5)}},
	}
	out := make([]Variant, 0, len(specs))
	for _, s := range specs {
		p, err := params.New(s.opts...)
		if err != nil {
			return nil, fmt.Errorf("preview variant %s: %w", s.label, err)
		}
		out = append(out, Variant{Label: s.label, Params: p})
	}
	return out, nil
}

// Build enhances img with every preview variant and lays the results out in
// a 3x2 grid of 300x300 cells, each labelled with its variant name.
func Build(img image.Image) (*Grid, error) {
	if err := imgutil.Validate(img); err != nil {
		return nil, err
	}

	auto, err := autoselect.Select(img)
	if err != nil {
		return nil, err
	}
	fixed, err := fixedVariants()
	if err != nil {
		return nil, err
	}

	variants := append([]Variant{
		{Label: LabelOriginal, Params: params.Default()},
		{Label: LabelAuto, Params: auto},
	}, fixed...)

	cells := make([]imgutil.Cell, len(variants))
	for i := range variants {
		v := &variants[i]
		out, err := enhance.Enhance(img, v.Params)
		if err != nil {
			return nil, fmt.Errorf("preview variant %s: %w", v.Label, err)
		}
		v.Image = out
		cells[i] = imgutil.Cell{Image: out, Label: v.Label}
		logger.WithFields(logrus.Fields{
			"variant": v.Label,
			"params":  v.Params.String(),
		}).Debug("preview variant rendered")
	}

	return &Grid{
		Image:    imgutil.ComposeGrid(cells, Columns, CellWidth, CellHeight),
		Variants: variants,
	}, nil
}
