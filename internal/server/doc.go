// Package server exposes the enhancement pipeline as an MCP (Model Context
// Protocol) server so an assistant can prepare images for OCR.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - enhance_select_parameters: run the auto-selector and report its statistics
//   - enhance_apply: enhance an image (auto, manual, preset or parameter file)
//   - enhance_preview: write the six-variant preview grid
//   - enhance_compare: measure an original/enhanced pair, write comparison and plot
//   - enhance_ocr: read the original and enhanced image with Tesseract
//
// Tools that enhance accept the parameter file keys (brightness, contrast,
// binarize_threshold, ...) as individual overrides.
//
// # Image Caching
//
// Decoded inputs are cached by path for the lifetime of the process. Files
// the server writes are evicted so a later call sees the new content.
//
// # Error Handling
//
// Tool failures come back as JSON-RPC errors with code -32000 and the Go
// error text in data. Malformed request lines get -32700.
package server
