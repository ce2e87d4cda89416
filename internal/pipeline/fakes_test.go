package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/plate"
)

var background = color.RGBA{90, 90, 90, 255}

// newTaggedFrame returns a frame whose top-left pixel carries tag in its
// red channel. Test regions never cover the origin so the tag survives
// redaction.
func newTaggedFrame(tag uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 160, 90))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = background.R, background.G, background.B, 255
	}
	img.Pix[0] = tag
	return img
}

func cloneFrame(frame *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(frame.Rect)
	copy(dst.Pix, frame.Pix)
	return dst
}

// paint fills region with c.
func paint(img *image.RGBA, r plate.Region, c color.RGBA) {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// paintChecker fills region with 2x2 black and white cells so that
// blurring it is observable.
func paintChecker(img *image.RGBA, r plate.Region) {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if (x/2+y/2)%2 == 0 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
}

// fakeDetector returns the regions registered for a frame's tag.
type fakeDetector struct {
	byTag  map[uint8][]plate.Region
	jitter bool
	err    error
}

func (d *fakeDetector) Detect(img image.Image) ([]plate.Region, error) {
	if d.jitter {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
	}
	if d.err != nil {
		return nil, d.err
	}
	frame := img.(*image.RGBA)
	return d.byTag[frame.Pix[0]], nil
}

// colorExtractor reads text by looking at the exact color of a crop's
// center pixel. A blurred crop reads as "".
type colorExtractor struct {
	mu    sync.Mutex
	texts map[color.RGBA]string
	calls int
}

func (e *colorExtractor) Extract(img image.Image) string {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	b := img.Bounds()
	c := color.RGBAModel.Convert(img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)).(color.RGBA)
	return e.texts[c]
}

func newTestRedactor(t *testing.T) *imaging.Redactor {
	t.Helper()
	r, err := imaging.NewRedactor(imaging.DefaultKernelSize, imaging.DefaultSigma)
	if err != nil {
		t.Fatalf("NewRedactor() error = %v", err)
	}
	return r
}

func newTestProcessor(t *testing.T, det *fakeDetector, ext TextExtractor) *Processor {
	t.Helper()
	return NewProcessor(det, newTestRedactor(t), ext, zerolog.Nop())
}

// fakeSource yields frames then io.EOF, or failErr after the frames.
type fakeSource struct {
	frames  []*image.RGBA
	failErr error
	next    int
	closed  bool
}

func (s *fakeSource) Next() (*image.RGBA, error) {
	if s.next >= len(s.frames) {
		if s.failErr != nil {
			return nil, s.failErr
		}
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSink struct {
	width, height int
	fps           float64
	frames        []*image.RGBA
	closed        bool
}

func (s *fakeSink) Write(frame *image.RGBA) error {
	s.frames = append(s.frames, cloneFrame(frame))
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

// fakeCodec serves one source and records the sink it creates. Create
// also touches the output path like a real encoder.
type fakeCodec struct {
	source  *fakeSource
	openErr error
	sink    *fakeSink
}

func (c *fakeCodec) Open(path string) (FrameSource, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.source, nil
}

func (c *fakeCodec) Create(path string, width, height int, fps float64) (FrameSink, error) {
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return nil, err
	}
	c.sink = &fakeSink{width: width, height: height, fps: fps}
	return c.sink, nil
}

// fakeDevice serves frames from a queue; an empty queue blocks until the
// read context expires.
type fakeDevice struct {
	mu      sync.Mutex
	frames  []*image.RGBA
	readErr error
	reads   int
	closes  int
}

func (d *fakeDevice) Read(ctx context.Context) (*image.RGBA, error) {
	d.mu.Lock()
	d.reads++
	if d.readErr != nil {
		err := d.readErr
		d.mu.Unlock()
		return nil, err
	}
	if len(d.frames) > 0 {
		f := d.frames[0]
		d.frames = d.frames[1:]
		d.mu.Unlock()
		return f, nil
	}
	d.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

// countingOpener hands out device on every call and counts opens.
type countingOpener struct {
	mu     sync.Mutex
	device *fakeDevice
	err    error
	opens  int
}

func (o *countingOpener) open(index int) (Device, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	o.opens++
	return o.device, nil
}

var errBrokenStream = errors.New("broken stream")

func samePixels(a, b *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.RGBAAt(x, y) != b.RGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}
