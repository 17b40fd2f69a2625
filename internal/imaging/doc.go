// Package imaging holds the page-image side of snipping: loading and caching
// page images, cropping snip regions out of them, cleaning Image-mode snips,
// and drawing a highlighted region for navigation.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Snip bounds are in this pixel space.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - A region (x, y, width, height) covers [x, x+width) by [y, y+height)
//   - Float bounds are widened to whole pixels by RegionRect
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The other functions are
// stateless and never modify their input image, so they can run concurrently
// on the same page.
//
// # Cleanup Pipeline
//
// Clean converts a snip to grayscale, upscales small snips, boosts contrast,
// sharpens, and binarizes. The pixel work is done by disintegration/imaging and
// bild; this package only chooses the order and the parameters.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions with no area, or entirely outside the page
//   - File I/O errors during image loading
//   - Malformed inline (base64) image data
//   - Encoding errors during image output
package imaging
