package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field names used in parameter files.
const (
	KeyBrightness  = "brightness"
	KeyContrast    = "contrast"
	KeySharpness   = "sharpness"
	KeyColor       = "color"
	KeyDenoise     = "denoise"
	KeyBinarize    = "binarize"
	KeyThreshold   = "binarize_threshold"
	KeyDeskew      = "deskew"
	KeyPerspective = "perspective"
	KeyResize      = "resize_factor"
)

var fileKeys = []string{
	KeyBrightness, KeyContrast, KeySharpness, KeyColor, KeyDenoise,
	KeyBinarize, KeyThreshold, KeyDeskew, KeyPerspective, KeyResize,
}

// fileFormat is the on-disk layout. Field order here is the order written.
type fileFormat struct {
	Brightness  float64  `json:"brightness" yaml:"brightness"`
	Contrast    float64  `json:"contrast" yaml:"contrast"`
	Sharpness   float64  `json:"sharpness" yaml:"sharpness"`
	Color       float64  `json:"color" yaml:"color"`
	Denoise     bool     `json:"denoise" yaml:"denoise"`
	Binarize    bool     `json:"binarize" yaml:"binarize"`
	Threshold   int      `json:"binarize_threshold" yaml:"binarize_threshold"`
	Deskew      bool     `json:"deskew" yaml:"deskew"`
	Perspective bool     `json:"perspective" yaml:"perspective"`
	Resize      *float64 `json:"resize_factor" yaml:"resize_factor"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Marshal encodes p as indented JSON, or YAML when asYAML is set.
func Marshal(p ParameterSet, asYAML bool) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ff := fileFormat{
		Brightness:  p.brightness,
		Contrast:    p.contrast,
		Sharpness:   p.sharpness,
		Color:       p.color,
		Denoise:     p.denoise,
		Binarize:    p.binarize,
		Threshold:   p.threshold,
		Deskew:      p.deskew,
		Perspective: p.perspective,
	}
	if f, ok := p.ResizeFactor(); ok {
		ff.Resize = &f
	}
	if asYAML {
		return yaml.Marshal(&ff)
	}
	data, err := json.MarshalIndent(&ff, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes p to path. The format follows the file extension.
func Save(p ParameterSet, path string) error {
	data, err := Marshal(p, isYAML(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write parameters: %w", err)
	}
	return nil
}

// Load reads and validates a parameter file written by Save (or by hand).
func Load(path string) (ParameterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParameterSet{}, &CorruptParametersError{Path: path, Reason: "cannot read file", Err: err}
	}
	return Unmarshal(path, data)
}

// Unmarshal decodes a parameter document. path is only used for error
// reporting and to pick the format.
func Unmarshal(path string, data []byte) (ParameterSet, error) {
	fields := map[string]interface{}{}
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return ParameterSet{}, &CorruptParametersError{Path: path, Reason: "malformed YAML", Err: err}
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return ParameterSet{}, &CorruptParametersError{Path: path, Reason: "malformed JSON", Err: err}
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return ParameterSet{}, &CorruptParametersError{Path: path, Reason: "trailing data after JSON document", Err: err}
		}
	}

	for key := range fields {
		if !knownKey(key) {
			return ParameterSet{}, &CorruptParametersError{Path: path, Field: key, Reason: "unknown field"}
		}
	}

	r := fieldReader{path: path, fields: fields}
	p := ParameterSet{
		brightness:  r.number(KeyBrightness),
		contrast:    r.number(KeyContrast),
		sharpness:   r.number(KeySharpness),
		color:       r.number(KeyColor),
		denoise:     r.boolean(KeyDenoise),
		binarize:    r.boolean(KeyBinarize),
		threshold:   r.integer(KeyThreshold),
		deskew:      r.boolean(KeyDeskew),
		perspective: r.boolean(KeyPerspective),
	}
	if f, ok := r.optionalNumber(KeyResize); ok {
		p.resize, p.hasResize = f, true
	}
	if r.err != nil {
		return ParameterSet{}, r.err
	}

	if err := p.Validate(); err != nil {
		ipe := err.(*InvalidParameterError)
		return ParameterSet{}, &CorruptParametersError{Path: path, Field: ipe.Field, Reason: "out of domain", Err: err}
	}
	return p, nil
}

func knownKey(key string) bool {
	for _, k := range fileKeys {
		if k == key {
			return true
		}
	}
	return false
}

// fieldReader pulls typed values out of a decoded document and keeps the
// first error.
type fieldReader struct {
	path   string
	fields map[string]interface{}
	err    error
}

func (r *fieldReader) fail(field, reason string) {
	if r.err == nil {
		r.err = &CorruptParametersError{Path: r.path, Field: field, Reason: reason}
	}
}

func (r *fieldReader) lookup(field string) (interface{}, bool) {
	v, ok := r.fields[field]
	if !ok {
		r.fail(field, "missing field")
	}
	return v, ok
}

func (r *fieldReader) number(field string) float64 {
	v, ok := r.lookup(field)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(field, fmt.Sprintf("expected a number, got %T", v))
	}
	return f
}

func (r *fieldReader) optionalNumber(field string) (float64, bool) {
	v, ok := r.lookup(field)
	if !ok || v == nil {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(field, fmt.Sprintf("expected a number or null, got %T", v))
		return 0, false
	}
	return f, true
}

func (r *fieldReader) integer(field string) int {
	f := r.number(field)
	if r.err != nil {
		return 0
	}
	if math.Trunc(f) != f || math.IsInf(f, 0) {
		r.fail(field, "expected an integer")
		return 0
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		r.fail(field, "integer out of range")
		return 0
	}
	return int(f)
}

func (r *fieldReader) boolean(field string) bool {
	v, ok := r.lookup(field)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(field, fmt.Sprintf("expected a boolean, got %T", v))
	}
	return b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
