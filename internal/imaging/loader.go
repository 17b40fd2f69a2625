package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ImageCache provides thread-safe caching of rendered page images.
//
// A snip names its source as a document plus a page; the page image is what
// the user drew the rectangle on. The cache stores decoded image.Image values
// keyed by the page image's file path (or any caller-chosen key for images
// handed over in memory through Put), so repeated snips on the same page do
// not decode the file again.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached pages remain in memory until explicitly removed via Evict() or Clear().
// A workbook session usually touches a handful of pages, so no eviction policy
// is applied automatically.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	page, err := cache.Load("/tmp/report-page-3.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	region, err := imaging.CropRegion(page, 120, 340, 400, 80, 1.0)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a page image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, and GIF. The image is cached under the exact
// path string provided; a relative and an absolute path to the same file are
// separate entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a valid PNG, JPEG, or GIF image
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.Get(path); ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.Put(path, img)
	return img, nil
}

// Get returns the cached image stored under key.
func (c *ImageCache) Get(key string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[key]
	return img, ok
}

// Put stores img under key, replacing any previous entry. A nil image is
// ignored.
func (c *ImageCache) Put(key string, img image.Image) {
	if img == nil {
		return
	}
	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
}

// Len reports how many images are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache. Unknown keys are ignored.
func (c *ImageCache) Evict(key string) {
	c.mu.Lock()
	delete(c.images, key)
	c.mu.Unlock()
}

// DecodeBase64 decodes an image sent inline by a client. Both bare base64 and
// data URLs ("data:image/png;base64,...") are accepted.
func DecodeBase64(data string) (image.Image, error) {
	data = strings.TrimSpace(data)
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return nil, fmt.Errorf("empty image data")
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// ImageInfo contains metadata about a page image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads a page image through the cache and describes it.
//
// Clients call this before snipping to learn the pixel space that snip
// bounds are expressed in.
//
// # Format Detection
//
// The format is determined by file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - Other extensions -> "unknown"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
