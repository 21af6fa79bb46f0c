package server

import (
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/ocr-enhance/internal/autoselect"
	"github.com/ironsheep/ocr-enhance/internal/enhance"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/logger"
	"github.com/ironsheep/ocr-enhance/internal/ocr"
	"github.com/ironsheep/ocr-enhance/internal/params"
	"github.com/ironsheep/ocr-enhance/internal/preview"
	"github.com/ironsheep/ocr-enhance/internal/report"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var call ToolCallParams
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if len(call.Arguments) == 0 {
		call.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(call.Name, call.Arguments)
	if err != nil {
		logger.WithError(err).WithField("tool", call.Name).Warn("tool failed")
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case ToolSelectParameters:
		return s.handleSelectParameters(args)
	case ToolApply:
		return s.handleApply(args)
	case ToolPreview:
		return s.handlePreview(args)
	case ToolCompare:
		return s.handleCompare(args)
	case ToolOCR:
		return s.handleOCR(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// parametersJSON renders p in the parameter file layout.
func parametersJSON(p params.ParameterSet) (json.RawMessage, error) {
	data, err := params.Marshal(p, false)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// overrideArgs are the per-field parameter overrides shared by the tools
// that enhance an image. Absent fields leave the starting point alone.
type overrideArgs struct {
	Brightness  *float64 `json:"brightness"`
	Contrast    *float64 `json:"contrast"`
	Sharpness   *float64 `json:"sharpness"`
	Color       *float64 `json:"color"`
	Denoise     *bool    `json:"denoise"`
	Binarize    *bool    `json:"binarize"`
	Threshold   *int     `json:"binarize_threshold"`
	Deskew      *bool    `json:"deskew"`
	Perspective *bool    `json:"perspective"`
	Resize      *float64 `json:"resize_factor"`
}

func (o overrideArgs) options() []params.Option {
	var opts []params.Option
	if o.Brightness != nil {
		opts = append(opts, params.WithBrightness(*o.Brightness))
	}
	if o.Contrast != nil {
		opts = append(opts, params.WithContrast(*o.Contrast))
	}
	if o.Sharpness != nil {
		opts = append(opts, params.WithSharpness(*o.Sharpness))
	}
	if o.Color != nil {
		opts = append(opts, params.WithColor(*o.Color))
	}
	if o.Denoise != nil {
		opts = append(opts, params.WithDenoise(*o.Denoise))
	}
	if o.Binarize != nil {
		opts = append(opts, params.WithBinarize(*o.Binarize))
	}
	if o.Threshold != nil {
		opts = append(opts, params.WithThreshold(*o.Threshold))
	}
	if o.Deskew != nil {
		opts = append(opts, params.WithDeskew(*o.Deskew))
	}
	if o.Perspective != nil {
		opts = append(opts, params.WithPerspective(*o.Perspective))
	}
	if o.Resize != nil {
		opts = append(opts, params.WithResize(*o.Resize))
	}
	return opts
}

// Enhancement modes accepted by the tools.
const (
	modeAuto   = "auto"
	modeManual = "manual"
	modeNone   = "none"
)

// resolveParams picks the starting ParameterSet for mode and applies the
// overrides. Giving a preset or params_file implies manual mode.
func resolveParams(img image.Image, mode string, preset *int, paramsFile string, o overrideArgs) (params.ParameterSet, error) {
	mode = strings.ToLower(mode)
	if mode == "" {
		mode = modeAuto
		if preset != nil || paramsFile != "" {
			mode = modeManual
		}
	}

	var base params.ParameterSet
	switch mode {
	case modeAuto:
		if preset != nil || paramsFile != "" {
			return params.ParameterSet{}, fmt.Errorf("preset and params_file require mode manual")
		}
		p, err := autoselect.Select(img)
		if err != nil {
			return params.ParameterSet{}, err
		}
		base = p
	case modeManual:
		switch {
		case preset != nil && paramsFile != "":
			return params.ParameterSet{}, fmt.Errorf("give either preset or params_file, not both")
		case preset != nil:
			if *preset < 0 || *preset >= params.PresetCount() {
				return params.ParameterSet{}, fmt.Errorf("unknown preset %d (want 0-%d)", *preset, params.PresetCount()-1)
			}
			base = params.Preset(*preset)
		case paramsFile != "":
			p, err := params.Load(paramsFile)
			if err != nil {
				return params.ParameterSet{}, err
			}
			base = p
		default:
			base = params.Default()
		}
	default:
		return params.ParameterSet{}, fmt.Errorf("unknown mode %q", mode)
	}

	return base.With(o.options()...)
}

// === Parameter Selection ===

type selectParametersArgs struct {
	Path     string `json:"path"`
	SavePath string `json:"save_path"`
}

type selectParametersResult struct {
	Parameters  json.RawMessage  `json:"parameters"`
	Stages      []string         `json:"stages"`
	Description string           `json:"description"`
	Stats       autoselect.Stats `json:"stats"`
	SavedTo     string           `json:"saved_to,omitempty"`
}

func (s *Server) handleSelectParameters(args json.RawMessage) (interface{}, error) {
	var a selectParametersArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	stats, err := autoselect.Analyze(img)
	if err != nil {
		return nil, err
	}
	p := autoselect.FromStats(stats)

	pj, err := parametersJSON(p)
	if err != nil {
		return nil, err
	}
	res := &selectParametersResult{
		Parameters:  pj,
		Stages:      enhance.Plan(p),
		Description: report.Describe(p),
		Stats:       stats,
	}
	if a.SavePath != "" {
		if err := params.Save(p, a.SavePath); err != nil {
			return nil, err
		}
		res.SavedTo = a.SavePath
	}
	return res, nil
}

// === Enhancement ===

type applyArgs struct {
	Path           string `json:"path"`
	OutputPath     string `json:"output_path"`
	Mode           string `json:"mode"`
	Preset         *int   `json:"preset"`
	ParamsFile     string `json:"params_file"`
	ComparisonPath string `json:"comparison_path"`
	overrideArgs
}

type applyResult struct {
	OutputPath     string          `json:"output_path"`
	ComparisonPath string          `json:"comparison_path,omitempty"`
	Parameters     json.RawMessage `json:"parameters"`
	Stages         []string        `json:"stages"`
	Description    string          `json:"description"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	Metrics        report.Metrics  `json:"metrics"`
}

func (s *Server) handleApply(args json.RawMessage) (interface{}, error) {
	var a applyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	p, err := resolveParams(img, a.Mode, a.Preset, a.ParamsFile, a.overrideArgs)
	if err != nil {
		return nil, err
	}
	out, err := enhance.Enhance(img, p)
	if err != nil {
		return nil, err
	}
	if err := s.save(out, a.OutputPath); err != nil {
		return nil, err
	}

	pj, err := parametersJSON(p)
	if err != nil {
		return nil, err
	}
	res := &applyResult{
		OutputPath:  a.OutputPath,
		Parameters:  pj,
		Stages:      enhance.Plan(p),
		Description: report.Describe(p),
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		Metrics:     report.Measure(img, out),
	}
	if a.ComparisonPath != "" {
		r := report.EnhancementReport{Original: img, Enhanced: out, Params: p}
		if err := s.save(report.Comparison(r, filepath.Base(a.Path)), a.ComparisonPath); err != nil {
			return nil, err
		}
		res.ComparisonPath = a.ComparisonPath
	}

	logger.WithFields(logrus.Fields{
		"path":   a.Path,
		"output": a.OutputPath,
		"params": p.String(),
	}).Info("image enhanced")
	return res, nil
}

// save writes img and drops any cached copy of the destination so later
// tool calls read the new file.
func (s *Server) save(img image.Image, path string) error {
	if err := imgutil.Save(img, path); err != nil {
		return err
	}
	s.cache.Evict(path)
	return nil
}

// === Preview ===

type previewArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
}

type previewVariant struct {
	Label       string          `json:"label"`
	Parameters  json.RawMessage `json:"parameters"`
	Description string          `json:"description"`
}

type previewResult struct {
	OutputPath string           `json:"output_path"`
	Variants   []previewVariant `json:"variants"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	grid, err := preview.Build(img)
	if err != nil {
		return nil, err
	}
	if err := s.save(grid.Image, a.OutputPath); err != nil {
		return nil, err
	}

	res := &previewResult{OutputPath: a.OutputPath}
	for _, v := range grid.Variants {
		pj, err := parametersJSON(v.Params)
		if err != nil {
			return nil, err
		}
		res.Variants = append(res.Variants, previewVariant{
			Label:       v.Label,
			Parameters:  pj,
			Description: report.Describe(v.Params),
		})
	}
	return res, nil
}

// === Comparison ===

type compareArgs struct {
	Original       string `json:"original"`
	Enhanced       string `json:"enhanced"`
	ParamsFile     string `json:"params_file"`
	ComparisonPath string `json:"comparison_path"`
	PlotPath       string `json:"plot_path"`
}

type compareResult struct {
	Metrics        report.Metrics `json:"metrics"`
	Description    string         `json:"description"`
	ComparisonPath string         `json:"comparison_path,omitempty"`
	PlotPath       string         `json:"plot_path,omitempty"`
}

func (s *Server) handleCompare(args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	orig, err := s.cache.Load(a.Original)
	if err != nil {
		return nil, err
	}
	enh, err := s.cache.Load(a.Enhanced)
	if err != nil {
		return nil, err
	}

	p := params.Default()
	if a.ParamsFile != "" {
		if p, err = params.Load(a.ParamsFile); err != nil {
			return nil, err
		}
	}
	r := report.EnhancementReport{Original: orig, Enhanced: enh, Params: p}

	res := &compareResult{
		Metrics:     report.Measure(orig, enh),
		Description: report.Describe(p),
	}
	if a.ComparisonPath != "" {
		if err := s.save(report.Comparison(r, report.DefaultTitle), a.ComparisonPath); err != nil {
			return nil, err
		}
		res.ComparisonPath = a.ComparisonPath
	}
	if a.PlotPath != "" {
		if err := s.save(report.Plot(r), a.PlotPath); err != nil {
			return nil, err
		}
		res.PlotPath = a.PlotPath
	}
	return res, nil
}

// === OCR ===

type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

type ocrArgs struct {
	Path       string      `json:"path"`
	Mode       string      `json:"mode"`
	ParamsFile string      `json:"params_file"`
	Language   string      `json:"language"`
	Expected   *string     `json:"expected"`
	Region     *regionArgs `json:"region"`
	overrideArgs
}

type ocrReading struct {
	Text           string           `json:"text"`
	Words          int              `json:"words"`
	MeanConfidence float64          `json:"mean_confidence"`
	Regions        []ocr.TextRegion `json:"regions"`
	Accuracy       *ocr.Accuracy    `json:"accuracy,omitempty"`
}

type ocrResult struct {
	Language   string          `json:"language"`
	Original   ocrReading      `json:"original"`
	Enhanced   *ocrReading     `json:"enhanced,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Stages     []string        `json:"stages,omitempty"`
}

func (s *Server) handleOCR(args json.RawMessage) (interface{}, error) {
	var a ocrArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	lang := a.Language
	if lang == "" {
		lang = s.language
	}

	res := &ocrResult{Language: lang}
	orig, err := s.read(img, lang, a.Region, a.Expected)
	if err != nil {
		return nil, err
	}
	res.Original = *orig

	if strings.ToLower(a.Mode) == modeNone {
		return res, nil
	}

	p, err := resolveParams(img, a.Mode, nil, a.ParamsFile, a.overrideArgs)
	if err != nil {
		return nil, err
	}
	enhanced, err := enhance.Enhance(img, p)
	if err != nil {
		return nil, err
	}
	if res.Enhanced, err = s.read(enhanced, lang, a.Region, a.Expected); err != nil {
		return nil, err
	}
	if res.Parameters, err = parametersJSON(p); err != nil {
		return nil, err
	}
	res.Stages = enhance.Plan(p)

	fields := logrus.Fields{"path": a.Path, "params": p.String()}
	if res.Original.Accuracy != nil && res.Enhanced.Accuracy != nil {
		fields["cer_before"] = res.Original.Accuracy.CharErrorRate
		fields["cer_after"] = res.Enhanced.Accuracy.CharErrorRate
	}
	logger.WithFields(fields).Info("OCR compared")
	return res, nil
}

func (s *Server) read(img image.Image, lang string, region *regionArgs, expected *string) (*ocrReading, error) {
	var (
		r   *ocr.OCRResult
		err error
	)
	if region != nil {
		r, err = ocr.ExtractTextFromRegion(s.engine, img, image.Rect(region.X1, region.Y1, region.X2, region.Y2), lang)
	} else {
		r, err = s.engine.ExtractText(img, lang)
	}
	if err != nil {
		return nil, err
	}

	reading := &ocrReading{
		Text:           r.FullText,
		Words:          len(r.Regions),
		MeanConfidence: r.MeanConfidence(),
		Regions:        r.Regions,
	}
	if expected != nil {
		acc := ocr.Score(*expected, r.FullText)
		reading.Accuracy = &acc
	}
	return reading, nil
}
