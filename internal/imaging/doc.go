// Package imaging provides the raster primitives shared by the enhancement
// pipeline, the parameter auto-selector and the reporting tools.
//
// It covers four areas:
//
//   - Loading, validating, cloning and saving images (loader.go). Decoding
//     goes through github.com/disintegration/imaging with EXIF orientation
//     applied, plus WebP via golang.org/x/image/webp.
//   - Luminance planes, histograms, Otsu thresholding and saturation
//     statistics (color.go).
//   - Canny edge maps and Sobel gradients (edge.go).
//   - Drawing helpers for labelled grids, fitted thumbnails and image
//     differences (grid.go, crop.go, measure.go).
//
// # Coordinate System
//
// Helpers that return derived planes (luminance, edges, gradients) always
// return them with bounds starting at (0,0), regardless of the source
// image's Min point. Flat slices are indexed y*width+x.
//
// # Luminance
//
// Luminance uses the ITU-R BT.601 weights with integer rounding:
//
//	Y = (299*R + 587*G + 114*B + 500) / 1000
//
// so a pixel with R == G == B maps to exactly that value. Alpha is ignored.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function is stateless
// and never modifies its input.
package imaging
