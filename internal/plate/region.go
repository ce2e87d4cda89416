package plate

import (
	"fmt"
	"image"
)

// Region is an axis-aligned rectangle in frame coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RegionFromRect converts an image.Rectangle to a Region.
func RegionFromRect(r image.Rectangle) Region {
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the region as an image.Rectangle (max edge exclusive).
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Area returns Width * Height.
func (r Region) Area() int {
	return r.Width * r.Height
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Validate checks that the region has positive area and lies within bounds.
// The returned error wraps ErrInvalidRegion.
func (r Region) Validate(bounds image.Rectangle) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %s has no area", ErrInvalidRegion, r)
	}
	if !r.Rect().In(bounds) {
		return fmt.Errorf("%w: %s not within %v", ErrInvalidRegion, r, bounds)
	}
	return nil
}
