package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/plateguard/internal/plate"
)

// Crop returns an independent copy of region from img.
//
// The returned image has bounds starting at (0,0) and does not share pixels
// with img, so later mutation of img leaves the crop intact.
//
// Returns an error wrapping plate.ErrInvalidRegion if the region does not lie
// within img's bounds.
func Crop(img image.Image, region plate.Region) (*image.NRGBA, error) {
	if err := region.Validate(img.Bounds()); err != nil {
		return nil, err
	}
	return imaging.Crop(img, region.Rect()), nil
}

// Grayscale returns a grayscale copy of img, the form OCR is run on.
func Grayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}
