package params

// Preset identifiers for the built-in text enhancement presets.
const (
	PresetMixed = iota
	PresetDocument
	PresetTextOnly
	PresetReceipt
)

type preset struct {
	name string
	opts []Option
}

var presets = []preset{
	PresetMixed: {"Mixed Content", []Option{
		WithBrightness(1.05), WithContrast(1.2), WithSharpness(1.3), WithColor(0.9), WithDenoise(true),
	}},
	PresetDocument: {"Document Text", []Option{
		WithBrightness(1.05), WithContrast(1.15), WithSharpness(1.2), WithColor(0.8), WithDenoise(true),
	}},
	PresetTextOnly: {"Pure Text", []Option{
		WithBrightness(1.0), WithContrast(1.3), WithSharpness(1.2), WithColor(0.7), WithDenoise(true),
	}},
	PresetReceipt: {"Receipt", []Option{
		WithBrightness(1.1), WithContrast(1.4), WithSharpness(1.2), WithColor(0.0), WithDenoise(true),
	}},
}

// Preset returns the built-in ParameterSet for id. Unknown ids fall back to
// PresetMixed.
func Preset(id int) ParameterSet {
	if id < 0 || id >= len(presets) {
		id = PresetMixed
	}
	p, err := New(presets[id].opts...)
	if err != nil {
		panic("params: invalid built-in preset: " + err.Error())
	}
	return p
}

// PresetName returns the display name for id, using the same fallback as
// Preset.
func PresetName(id int) string {
	if id < 0 || id >= len(presets) {
		id = PresetMixed
	}
	return presets[id].name
}

// PresetCount is the number of built-in presets.
func PresetCount() int { return len(presets) }
