package video

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/pipeline"
	"github.com/ironsheep/plateguard/internal/plate"
)

// OpenCamera opens capture device index. It satisfies pipeline.Opener.
//
// The capture buffer is kept to one frame so reads return the most recent
// frame rather than a backlog.
func OpenCamera(index int) (pipeline.Device, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", plate.ErrDeviceUnavailable, index, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d", plate.ErrDeviceUnavailable, index)
	}
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	return &cameraDevice{index: index, capture: capture, mat: gocv.NewMat()}, nil
}

type readResult struct {
	frame *image.RGBA
	err   error
}

// cameraDevice reads a webcam.
//
// OpenCV reads cannot be interrupted, so each read runs on its own
// goroutine. A read abandoned by a timed-out Read stays pending and is
// collected by the next Read; Close waits for it before releasing the
// capture.
type cameraDevice struct {
	index   int
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	pending chan readResult
	closed  bool
}

// Read implements pipeline.Device.
func (d *cameraDevice) Read(ctx context.Context) (*image.RGBA, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: device %d closed", plate.ErrDeviceUnavailable, d.index)
	}
	if d.pending == nil {
		ch := make(chan readResult, 1)
		d.pending = ch
		go func() { ch <- d.readFrame() }()
	}
	ch := d.pending
	d.mu.Unlock()

	select {
	case res := <-ch:
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
		return res.frame, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *cameraDevice) readFrame() readResult {
	if ok := d.capture.Read(&d.mat); !ok || d.mat.Empty() {
		return readResult{err: fmt.Errorf("%w: device %d: read failed", plate.ErrDeviceUnavailable, d.index)}
	}
	img, err := d.mat.ToImage()
	if err != nil {
		return readResult{err: fmt.Errorf("converting frame: %w", err)}
	}
	return readResult{frame: imaging.ToRGBA(img)}
}

// Close implements pipeline.Device.
func (d *cameraDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if pending != nil {
		<-pending
	}
	d.mat.Close()
	return d.capture.Close()
}
