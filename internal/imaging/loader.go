package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// SupportedExtensions lists the file extensions accepted by batch discovery,
// lower case with the leading dot.
var SupportedExtensions = []string{".bmp", ".gif", ".jpeg", ".jpg", ".png", ".tif", ".tiff", ".webp"}

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// OutputExt returns the extension an enhanced copy of path is written
// with. Formats that can be decoded but not encoded fall back to PNG, as
// does GIF since its palette would destroy the enhancement.
func OutputExt(path string) string {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".webp", ".gif", "":
		return ".png"
	}
	return ext
}

// UnsupportedImageError reports input that cannot be interpreted as a
// raster of a supported layout.
type UnsupportedImageError struct {
	Path   string // empty for in-memory images
	Reason string
	Err    error
}

func (e *UnsupportedImageError) Error() string {
	msg := "unsupported image"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnsupportedImageError) Unwrap() error {
	return e.Err
}

// Validate checks that img is a non-empty raster with color or gray
// channels.
func Validate(img image.Image) error {
	if img == nil {
		return &UnsupportedImageError{Reason: "nil image"}
	}
	switch img.(type) {
	case *image.Alpha, *image.Alpha16:
		return &UnsupportedImageError{Reason: "alpha-only images have no luminance"}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return &UnsupportedImageError{Reason: fmt.Sprintf("zero dimensions %dx%d", b.Dx(), b.Dy())}
	}
	return nil
}

// Load opens and decodes the image at path, applying EXIF orientation.
//
// A file that cannot be opened yields a wrapped *os.PathError. A file that
// opens but does not decode, or decodes to an unusable raster, yields an
// *UnsupportedImageError.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &UnsupportedImageError{Path: path, Reason: "cannot decode", Err: err}
	}
	if err := Validate(img); err != nil {
		var uie *UnsupportedImageError
		if errors.As(err, &uie) {
			uie.Path = path
		}
		return nil, err
	}
	return img, nil
}

// Save encodes img to path, creating missing parent directories. The
// format follows the extension; JPEG output uses quality 95.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of img with the same concrete type and bounds
// for the standard library image types. Other types are copied into an
// *image.NRGBA.
func Clone(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.Gray:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		return &dst
	case *image.Gray16:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		return &dst
	case *image.RGBA:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		return &dst
	case *image.RGBA64:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		return &dst
	case *image.NRGBA:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		return &dst
	case *image.NRGBA64:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		return &dst
	case *image.CMYK:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		return &dst
	case *image.Paletted:
		dst := *src
		dst.Pix = append([]uint8(nil), src.Pix...)
		dst.Palette = append(src.Palette[:0:0], src.Palette...)
		return &dst
	case *image.YCbCr:
		dst := *src
		dst.Y = append([]uint8(nil), src.Y...)
		dst.Cb = append([]uint8(nil), src.Cb...)
		dst.Cr = append([]uint8(nil), src.Cr...)
		return &dst
	}
	return imaging.Clone(img)
}

// ImageCache keeps decoded images keyed by path so repeated requests for
// the same file skip disk I/O. It is safe for concurrent use.
//
// Cached images are shared between callers and must be treated as
// read-only; every transform in this module already returns new images.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache returns an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the cached image for path or loads it with Load.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Evict drops path from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
