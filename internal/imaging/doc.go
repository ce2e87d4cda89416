// Package imaging provides the frame-level image operations used by the plate
// pipeline: loading and saving still images, converting decoded images into
// owned RGBA frames, taking independent crops, and redacting regions with a
// strong gaussian blur.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, the top-left corner is inclusive and the bottom-right
//     corner (X+Width, Y+Height) is exclusive
//
// # Frames and Ownership
//
// A frame is an *image.RGBA whose bounds start at (0,0). LoadFrame and ToRGBA
// always return a frame the caller owns exclusively. Crop returns a copy, so a
// crop taken before redaction is not affected by later blurring of the frame.
// Redactor.Redact mutates the frame in place and touches only the pixels of
// the given region.
//
// # Formats
//
// Still image formats are chosen from the file extension (JPEG, PNG, GIF,
// TIFF, BMP) through github.com/disintegration/imaging. Decoding failures are
// reported as plate.ErrDecode.
//
// # Thread Safety
//
// Functions in this package are stateless. A Redactor holds only an immutable
// kernel and may be shared between goroutines, but concurrent redaction of the
// same frame must be synchronized by the caller.
package imaging
