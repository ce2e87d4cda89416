package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/plateguard/internal/plate"
)

// Detector finds candidate plate regions in a frame.
//
// Detect must not modify img. Returned regions lie within img's bounds and
// are in the order the detection method produces them.
type Detector interface {
	Detect(img image.Image) ([]plate.Region, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(img image.Image) ([]plate.Region, error)

// Detect calls f(img).
func (f DetectorFunc) Detect(img image.Image) ([]plate.Region, error) {
	return f(img)
}

// Options tunes multi-scale detection.
type Options struct {
	// ScaleFactor is the growth factor between consecutive window scales (> 1).
	ScaleFactor float64 `yaml:"scale_factor" json:"scale_factor"`

	// MinNeighbors is the number of overlapping raw hits a region needs,
	// exclusive: a cluster must have more than MinNeighbors members.
	// Zero disables grouping and returns every raw hit.
	MinNeighbors int `yaml:"min_neighbors" json:"min_neighbors"`

	// MinSize is the smallest window searched. Zero lets the backend choose.
	MinSize image.Point `yaml:"-" json:"min_size"`

	// MaxSize is the largest window searched. Zero means unbounded.
	MaxSize image.Point `yaml:"-" json:"max_size"`
}

// Tuning for the Haar plate model.
const (
	DefaultScaleFactor  = 1.1
	DefaultMinNeighbors = 4
)

// DefaultOptions returns the Haar plate model tuning.
func DefaultOptions() Options {
	return Options{
		ScaleFactor:  DefaultScaleFactor,
		MinNeighbors: DefaultMinNeighbors,
	}
}

// Validate reports an error for options no backend can use.
func (o Options) Validate() error {
	if o.ScaleFactor <= 1 {
		return fmt.Errorf("scale factor must be greater than 1, got %g", o.ScaleFactor)
	}
	if o.MinNeighbors < 0 {
		return fmt.Errorf("min neighbors must not be negative, got %d", o.MinNeighbors)
	}
	if o.MinSize.X < 0 || o.MinSize.Y < 0 || o.MaxSize.X < 0 || o.MaxSize.Y < 0 {
		return fmt.Errorf("window sizes must not be negative")
	}
	if o.MaxSize != (image.Point{}) && (o.MaxSize.X < o.MinSize.X || o.MaxSize.Y < o.MinSize.Y) {
		return fmt.Errorf("max size %v smaller than min size %v", o.MaxSize, o.MinSize)
	}
	return nil
}

// ClipRegions drops regions that do not intersect bounds and clips the rest
// so every returned region is valid for a frame with those bounds.
func ClipRegions(regions []plate.Region, bounds image.Rectangle) []plate.Region {
	out := regions[:0]
	for _, r := range regions {
		rect := r.Rect().Intersect(bounds)
		if rect.Empty() {
			continue
		}
		out = append(out, plate.RegionFromRect(rect))
	}
	return out
}
