// Package autoselect inspects an image and picks enhancement parameters
// without user input.
//
// Analyze measures luminance, contrast spread, noise, sharpness,
// saturation, Otsu separability, edge density, skew and the presence of a
// page boundary. FromStats turns those numbers into a params.ParameterSet
// with fixed thresholds, so the same image always yields the same
// parameters.
package autoselect
