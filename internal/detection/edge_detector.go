package detection

import (
	"image"
	"math"

	"github.com/ironsheep/plateguard/internal/plate"
)

// Window acceptance thresholds for EdgeDetector.
const (
	edgeThreshold   = 0.5
	minEdgeDensity  = 0.05
	maxEdgeDensity  = 0.6
	minVerticalFrac = 0.55
)

// DefaultEdgeMinSize is the smallest window EdgeDetector searches when
// Options.MinSize is zero. It matches a distant plate's 3:1 aspect ratio.
var DefaultEdgeMinSize = image.Pt(60, 20)

// EdgeDetector is a pure-Go plate detector.
//
// It slides windows of a plate-like aspect ratio over the frame at scales
// growing by Options.ScaleFactor. A window is a raw hit when its edge density
// is in the plate range (text on a plain background is neither empty nor a
// solid texture) and most of its edges are vertical character strokes. A
// window whose neighbours above and below look the same is part of a
// repeating texture such as a fence or a facade and is skipped. Raw hits are grouped
// with GroupRegions using Options.MinNeighbors.
type EdgeDetector struct {
	opts Options
}

// NewEdgeDetector returns an EdgeDetector. Invalid options are reported.
func NewEdgeDetector(opts Options) (*EdgeDetector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.MinSize == (image.Point{}) {
		opts.MinSize = DefaultEdgeMinSize
	}
	return &EdgeDetector{opts: opts}, nil
}

// Options returns the effective options.
func (d *EdgeDetector) Options() Options { return d.opts }

// Detect implements Detector.
func (d *EdgeDetector) Detect(img image.Image) ([]plate.Region, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < d.opts.MinSize.X || height < d.opts.MinSize.Y {
		return nil, nil
	}

	edges := buildEdgeMap(img, edgeThreshold)

	var raw []plate.Region
	scale := 1.0
	for {
		w := int(math.Round(float64(d.opts.MinSize.X) * scale))
		h := int(math.Round(float64(d.opts.MinSize.Y) * scale))
		if w > width || h > height {
			break
		}
		if d.opts.MaxSize != (image.Point{}) && (w > d.opts.MaxSize.X || h > d.opts.MaxSize.Y) {
			break
		}

		stepX := max(1, w/10)
		stepY := max(1, h/5)

		for y := 0; y+h <= height; y += stepY {
			for x := 0; x+w <= width; x += stepX {
				if !edges.plateLike(x, y, w, h) || edges.textured(x, y, w, h) {
					continue
				}
				raw = append(raw, plate.Region{
					X:      x + bounds.Min.X,
					Y:      y + bounds.Min.Y,
					Width:  w,
					Height: h,
				})
			}
		}

		scale *= d.opts.ScaleFactor
	}

	return ClipRegions(GroupRegions(raw, d.opts.MinNeighbors), bounds), nil
}

var _ Detector = (*EdgeDetector)(nil)
