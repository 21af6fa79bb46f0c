// Package params defines ParameterSet, the validated configuration that
// drives one enhancement run.
//
// A ParameterSet is a small comparable value. Its fields are unexported so a
// set can only be produced through New, With, Default, Preset or Load, each
// of which validates every field against its domain:
//
//	brightness          [0.5, 1.5]  identity 1.0
//	contrast            [0.5, 2.0]  identity 1.0
//	sharpness           [0.0, 2.0]  identity 1.0
//	color               [0.0, 2.0]  identity 1.0 (0.0 is grayscale)
//	binarize_threshold  [0, 255]    default 128
//	resize_factor       (0, 8] or absent
//
// Out-of-domain values are rejected with *InvalidParameterError. Nothing is
// clamped.
//
// # Files
//
// Save and Load use JSON by default and YAML when the path ends in .yaml or
// .yml. Every field is always written; resize_factor is written as null when
// absent. Load treats the file as untrusted: missing, unknown, mistyped or
// out-of-domain fields fail with *CorruptParametersError.
package params
