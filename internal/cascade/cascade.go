// Package cascade runs a pretrained OpenCV Haar cascade as a plate
// detector.
//
// This package links against OpenCV through gocv. The rest of the module
// depends only on the detection.Detector interface so it can be built and
// tested with the pure-Go EdgeDetector when OpenCV is absent.
package cascade

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plateguard/internal/detection"
	"github.com/ironsheep/plateguard/internal/plate"
)

// Detector wraps a loaded cascade classifier.
//
// OpenCV classifiers are not safe for concurrent use, so Detect calls are
// serialized.
type Detector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	opts       detection.Options
	path       string
	closed     bool
}

// New loads the cascade model at modelPath.
//
// Parameters:
//   - modelPath: path to the cascade XML file
//   - opts: multi-scale search options; validated before loading
//
// Returns an error wrapping plate.ErrModelLoad when the file is missing or
// OpenCV rejects it.
func New(modelPath string, opts detection.Options) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", plate.ErrModelLoad, modelPath, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(modelPath) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s: not a cascade model", plate.ErrModelLoad, modelPath)
	}

	return &Detector{
		classifier: classifier,
		opts:       opts,
		path:       modelPath,
	}, nil
}

// Path returns the model file the detector was loaded from.
func (d *Detector) Path() string { return d.path }

// Detect implements detection.Detector.
//
// The frame is converted to a grayscale Mat and searched with the configured
// scale factor, neighbor count and window bounds. Results are clipped to the
// frame.
func (d *Detector) Detect(img image.Image) ([]plate.Region, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, nil
	}

	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("cascade detector is closed")
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		gray,
		d.opts.ScaleFactor,
		d.opts.MinNeighbors,
		0,
		d.opts.MinSize,
		d.opts.MaxSize,
	)

	regions := make([]plate.Region, 0, len(rects))
	for _, r := range rects {
		// Mat coordinates start at zero regardless of the image origin
		regions = append(regions, plate.RegionFromRect(r.Add(bounds.Min)))
	}
	return detection.ClipRegions(regions, bounds), nil
}

// Close releases the classifier. It is safe to call more than once.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}

var _ detection.Detector = (*Detector)(nil)
