package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/plateguard/internal/plate"
)

// DefaultJPEGQuality is used when writing JPEG frames and snapshots.
const DefaultJPEGQuality = 95

// LoadFrame decodes the still image at path into an owned RGBA frame.
//
// Parameters:
//   - path: Path to a JPEG, PNG, GIF, TIFF or BMP image.
//
// Returns:
//   - *image.RGBA: The decoded frame with bounds starting at (0,0).
//   - error: Wraps plate.ErrDecode if the file cannot be opened or decoded.
//
// EXIF orientation is not applied; the frame is returned exactly as stored so
// that an unchanged frame re-encodes to the same pixels.
func LoadFrame(path string) (*image.RGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", plate.ErrDecode, path, err)
	}
	return ToRGBA(img), nil
}

// SaveFrame encodes img to path. The container format is chosen from the file
// extension and the parent directory is created if needed.
func SaveFrame(img image.Image, path string) error {
	if err := CheckFormat(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// SaveFrameAtomic writes img next to path and renames it into place, so a
// reader polling path never observes a partially written file.
func SaveFrameAtomic(img image.Image, path string) error {
	ext := filepath.Ext(path)
	tmp := path[:len(path)-len(ext)] + ".tmp" + ext
	if err := SaveFrame(img, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// CheckFormat reports an error if path does not have a supported still
// image extension.
func CheckFormat(path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("unsupported output format for %s: %w", path, err)
	}
	return nil
}

// ToRGBA returns img as an RGBA frame whose bounds start at (0,0).
//
// If img already is such a frame it is returned as is; otherwise the pixels
// are copied into a new frame.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
