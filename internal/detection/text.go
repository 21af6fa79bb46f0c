package detection

// ContentKind is the coarse category of an image.
type ContentKind int

const (
	Photo ContentKind = iota
	Document
)

func (k ContentKind) String() string {
	if k == Document {
		return "document"
	}
	return "photo"
}

func (k ContentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ContentFeatures are the statistics the document/photo heuristic reads.
// All values are normalised to [0,1].
type ContentFeatures struct {
	Saturation   float64 // mean HSV saturation
	Separability float64 // Otsu between-class / total variance
	MeanLuma     float64 // mean luminance / 255
	EdgeDensity  float64 // fraction of Canny edge pixels
}

// Thresholds for Classify.
const (
	DocMaxSaturation   = 0.15
	DocMinSeparability = 0.60
	DocMinMeanLuma     = 0.45
	DocMinEdgeDensity  = 0.005
	DocMaxEdgeDensity  = 0.35
)

// Classify decides whether f describes a scanned or photographed page of
// text rather than a photograph.
//
// Printed pages are nearly colourless, strongly bimodal (ink against
// paper), predominantly light, and have moderate edge density: enough
// strokes to carry text but far fewer than the texture of a natural scene.
// All four conditions must hold.
func Classify(f ContentFeatures) ContentKind {
	if f.Saturation >= DocMaxSaturation {
		return Photo
	}
	if f.Separability <= DocMinSeparability {
		return Photo
	}
	if f.MeanLuma <= DocMinMeanLuma {
		return Photo
	}
	if f.EdgeDensity < DocMinEdgeDensity || f.EdgeDensity > DocMaxEdgeDensity {
		return Photo
	}
	return Document
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

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
