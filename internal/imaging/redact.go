package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/convolution"

	"github.com/ironsheep/plateguard/internal/plate"
)

const (
	// DefaultKernelSize is the side of the square blur kernel.
	DefaultKernelSize = 51

	// DefaultSigma is the gaussian standard deviation in pixels.
	DefaultSigma = 30.0
)

// Redactor applies an irreversible gaussian blur confined to a region.
//
// The blur is separable: a normalized 1-D gaussian kernel is convolved
// horizontally and then vertically over a copy of the region, and the result
// is written back into the frame. Border pixels of the region are extended
// (clamped), so pixels outside the region never influence or receive the blur.
type Redactor struct {
	size   int
	sigma  float64
	kernel convolution.Matrix
}

// NewRedactor builds a Redactor for a size x size kernel with the given sigma.
// size must be odd and positive, sigma must be positive.
func NewRedactor(size int, sigma float64) (*Redactor, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("blur kernel size must be odd and positive, got %d", size)
	}
	if sigma <= 0 {
		return nil, fmt.Errorf("blur sigma must be positive, got %g", sigma)
	}

	k := convolution.NewKernel(size, 1)
	center := size / 2
	for i := 0; i < size; i++ {
		x := float64(i - center)
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
	}

	return &Redactor{
		size:   size,
		sigma:  sigma,
		kernel: k.Normalized(),
	}, nil
}

// KernelSize returns the blur kernel side length.
func (r *Redactor) KernelSize() int { return r.size }

// Sigma returns the gaussian standard deviation.
func (r *Redactor) Sigma() float64 { return r.sigma }

// Redact blurs region of frame in place and returns frame for chaining.
//
// Re-blurring an already blurred region is allowed. Returns an error wrapping
// plate.ErrInvalidRegion, leaving the frame untouched, if the region does not
// lie within the frame.
func (r *Redactor) Redact(frame *image.RGBA, region plate.Region) (*image.RGBA, error) {
	if err := region.Validate(frame.Bounds()); err != nil {
		return frame, err
	}

	rect := region.Rect()
	roi := ToRGBA(frame.SubImage(rect))

	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	blurred := convolution.Convolve(roi, r.kernel, opts)
	blurred = convolution.Convolve(blurred, r.kernel.Transposed(), opts)

	draw.Draw(frame, rect, blurred, blurred.Bounds().Min, draw.Src)
	return frame, nil
}
