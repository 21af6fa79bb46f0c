// Package detection finds the geometric and structural features the
// enhancement pipeline and the parameter auto-selector act on.
//
// # Features
//
//   - Skew: the dominant text-line angle, found by Hough-style projection
//     voting over ink pixels (lines.go).
//   - Document quadrilateral: the boundary of a photographed page, found by
//     Canny edges, contour grouping and an extreme-corner fit (shapes.go).
//   - Content classification: scanned document versus photograph, from
//     colour, histogram and edge statistics (text.go).
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at the top-left corner of the image bounds
//   - X increases rightward
//   - Y increases downward
//
// Angles are in degrees. A positive skew means the content is rotated
// counter-clockwise as seen on screen (text lines rise to the right).
//
// # Performance Considerations
//
// Both the skew estimator and the quadrilateral finder work on a downscaled
// copy of the input (longest side at most 800 and 600 pixels respectively)
// so their cost is bounded regardless of scan resolution. Results are
// mapped back to the input's coordinates.
//
// # Limitations
//
// Skew estimation assumes horizontal text lines and searches ±15°. Quad
// detection assumes the page contrasts with its background; a page that
// fills the whole frame is reported as not found.
package detection
