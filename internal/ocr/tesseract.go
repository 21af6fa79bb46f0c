package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion is one recognized word with its location and confidence.
type TextRegion struct {
	Text string `json:"text"`

	// Confidence is Tesseract's word confidence scaled to 0..1.
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the text recognized in one image.
type OCRResult struct {
	// FullText keeps Tesseract's spacing and newlines.
	FullText string `json:"full_text"`

	// Regions may be empty when word boxes are unavailable; FullText is
	// still set.
	Regions []TextRegion `json:"regions"`
}

// MeanConfidence averages the word confidences, or returns 0 when there
// are no words.
func (r *OCRResult) MeanConfidence() float64 {
	if len(r.Regions) == 0 {
		return 0
	}
	var sum float64
	for _, reg := range r.Regions {
		sum += reg.Confidence
	}
	return sum / float64(len(r.Regions))
}

// Engine turns an image into text. Tesseract is the production engine;
// callers depend on the interface so tests can substitute a fake.
type Engine interface {
	ExtractText(img image.Image, language string) (*OCRResult, error)
}

// Tesseract is the gosseract-backed Engine.
type Tesseract struct{}

// ExtractText implements Engine.
func (Tesseract) ExtractText(img image.Image, language string) (*OCRResult, error) {
	return ExtractText(img, language)
}

// ExtractText runs Tesseract over img and returns the full text plus
// word-level boxes. An empty language means DefaultLanguage.
func ExtractText(img image.Image, language string) (*OCRResult, error) {
	if err := imgutil.Validate(img); err != nil {
		return nil, err
	}
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}

	data, err := imgutil.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &OCRResult{FullText: text, Regions: []TextRegion{}}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &OCRResult{FullText: text, Regions: regions}, nil
}

// ExtractTextFromRegion recognizes only the rectangle r of img. Word boxes
// are reported in img's coordinates, not the crop's.
func ExtractTextFromRegion(e Engine, img image.Image, r image.Rectangle, language string) (*OCRResult, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %v lies outside the image %v", r, img.Bounds())
	}

	result, err := e.ExtractText(imaging.Crop(img, r), language)
	if err != nil {
		return nil, err
	}

	dx := r.Min.X - img.Bounds().Min.X
	dy := r.Min.Y - img.Bounds().Min.Y
	for i := range result.Regions {
		result.Regions[i].Bounds.X1 += dx
		result.Regions[i].Bounds.Y1 += dy
		result.Regions[i].Bounds.X2 += dx
		result.Regions[i].Bounds.Y2 += dy
	}
	return result, nil
}
