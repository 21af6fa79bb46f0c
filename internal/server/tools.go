package server

import "github.com/ironsheep/ocr-enhance/internal/params"

// Tool names.
const (
	ToolSelectParameters = "enhance_select_parameters"
	ToolApply            = "enhance_apply"
	ToolPreview          = "enhance_preview"
	ToolCompare          = "enhance_compare"
	ToolOCR              = "enhance_ocr"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

// parameterProperties describes the optional per-field overrides accepted
// by the tools that enhance an image.
func parameterProperties() map[string]interface{} {
	num := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": desc}
	}
	flag := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "boolean", "description": desc}
	}
	return map[string]interface{}{
		params.KeyBrightness:  num("Brightness factor 0.5-1.5 (1.0 = unchanged)"),
		params.KeyContrast:    num("Contrast factor 0.5-2.0 (1.0 = unchanged)"),
		params.KeySharpness:   num("Sharpness factor 0.0-2.0 (1.0 = unchanged, <1 blurs)"),
		params.KeyColor:       num("Color saturation 0.0-2.0 (0 = grayscale, 1.0 = unchanged)"),
		params.KeyDenoise:     flag("Apply a 3x3 median filter"),
		params.KeyBinarize:    flag("Convert to black and white"),
		params.KeyThreshold:   map[string]interface{}{"type": "integer", "description": "Binarize threshold 0-255 (default 128)"},
		params.KeyDeskew:      flag("Rotate text lines level"),
		params.KeyPerspective: flag("Flatten a photographed page to a rectangle"),
		params.KeyResize:      num("Scale factor applied last, greater than 0 and at most 8"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	applyProps := map[string]interface{}{
		"path":        pathProperty("Absolute path to the image file"),
		"output_path": pathProperty("Where to write the enhanced image; the extension picks the format"),
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"auto", "manual"},
			"description": "auto picks parameters from the image; manual starts from the defaults, a preset or params_file. Default auto",
		},
		"preset": map[string]interface{}{
			"type":        "integer",
			"description": "Built-in preset 0-3 (Mixed Content, Document Text, Pure Text, Receipt) used as the manual starting point",
		},
		"params_file":     pathProperty("JSON or YAML parameter file used as the manual starting point"),
		"comparison_path": pathProperty("Optional path for a side-by-side comparison image"),
	}
	for k, v := range parameterProperties() {
		applyProps[k] = v
	}

	ocrProps := map[string]interface{}{
		"path": pathProperty("Absolute path to the image file"),
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"auto", "manual", "none"},
			"description": "How to enhance before OCR; none reads the original only. Default auto",
		},
		"params_file": pathProperty("Parameter file for manual mode"),
		"language": map[string]interface{}{
			"type":        "string",
			"description": "Tesseract language code (default from OCR_ENHANCE_LANG, else eng)",
		},
		"expected": map[string]interface{}{
			"type":        "string",
			"description": "Optional reference transcript; when given, character and word error rates are reported",
		},
		"region": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"description": "Optional region to read in each image. Word boxes stay in full-image coordinates.",
		},
	}
	for k, v := range parameterProperties() {
		ocrProps[k] = v
	}

	return []Tool{
		{
			Name:        ToolSelectParameters,
			Description: "Analyze an image and return the enhancement parameters the auto-selector would use, with the statistics behind them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty("Absolute path to the image file"),
					"save_path": pathProperty("Optional path to save the parameters (.json, .yaml or .yml)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        ToolApply,
			Description: "Enhance an image for OCR and write the result. Individual parameters override the mode's starting point.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": applyProps,
				"required":   []string{"path", "output_path"},
			},
		},
		{
			Name:        ToolPreview,
			Description: "Render a labelled 3x2 grid of the image under six settings (original, auto, denoise, binarize, bright+contrast, contrast+sharpen).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("Absolute path to the image file"),
					"output_path": pathProperty("Where to write the preview grid"),
				},
				"required": []string{"path", "output_path"},
			},
		},
		{
			Name:        ToolCompare,
			Description: "Measure how an enhanced image differs from its original and optionally write a comparison image and a histogram plot.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"original":        pathProperty("Absolute path to the original image"),
					"enhanced":        pathProperty("Absolute path to the enhanced image"),
					"params_file":     pathProperty("Optional parameter file used for the caption"),
					"comparison_path": pathProperty("Optional path for the side-by-side comparison"),
					"plot_path":       pathProperty("Optional path for the histogram plot"),
				},
				"required": []string{"original", "enhanced"},
			},
		},
		{
			Name:        ToolOCR,
			Description: "Run Tesseract on the original and the enhanced image and report both texts, so the effect of enhancement can be judged.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": ocrProps,
				"required":   []string{"path"},
			},
		},
	}
}
