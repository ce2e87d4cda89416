package detection

import (
	"image"
	"image/color"
	"testing"
	"time"
)

// newBarsFrame draws dark vertical bars inside area on a light gray frame,
// roughly what a row of plate characters looks like to an edge detector.
func newBarsFrame(width, height int, area image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	light := color.RGBA{200, 200, 200, 255}
	dark := color.RGBA{20, 20, 20, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := light
			if image.Pt(x, y).In(area) && (x-area.Min.X)%16 < 4 {
				c = dark
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestNewEdgeDetector(t *testing.T) {
	d, err := NewEdgeDetector(DefaultOptions())
	if err != nil {
		t.Fatalf("NewEdgeDetector() error = %v", err)
	}
	if d.Options().MinSize != DefaultEdgeMinSize {
		t.Errorf("MinSize = %v, want %v", d.Options().MinSize, DefaultEdgeMinSize)
	}

	if _, err := NewEdgeDetector(Options{ScaleFactor: 1.0}); err == nil {
		t.Error("expected error for scale factor 1.0")
	}
}

func TestEdgeDetector_FindsTextLikeArea(t *testing.T) {
	area := image.Rect(40, 40, 200, 80)
	img := newBarsFrame(240, 120, area)

	d, err := NewEdgeDetector(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	regions, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(regions) == 0 {
		t.Fatal("expected at least one region over the bars")
	}
	for _, r := range regions {
		if !r.Rect().Overlaps(area) {
			t.Errorf("region %v does not touch the bar area %v", r, area)
		}
		if err := r.Validate(img.Bounds()); err != nil {
			t.Errorf("region %v outside frame: %v", r, err)
		}
	}
}

func TestEdgeDetector_UniformFrame(t *testing.T) {
	img := newBarsFrame(240, 120, image.Rectangle{})

	d, _ := NewEdgeDetector(DefaultOptions())
	regions, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("expected no regions on a plain frame, got %v", regions)
	}
}

func TestEdgeDetector_FrameSmallerThanWindow(t *testing.T) {
	img := newBarsFrame(40, 10, image.Rect(0, 0, 40, 10))

	d, _ := NewEdgeDetector(DefaultOptions())
	regions, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if regions != nil {
		t.Errorf("expected nil, got %v", regions)
	}
}

func TestEdgeDetector_SubImageCoordinates(t *testing.T) {
	area := image.Rect(60, 60, 220, 100)
	full := newBarsFrame(280, 160, area)
	sub := full.SubImage(image.Rect(20, 20, 260, 140))

	d, _ := NewEdgeDetector(DefaultOptions())
	regions, err := d.Detect(sub)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(regions) == 0 {
		t.Fatal("expected regions in sub-image")
	}
	for _, r := range regions {
		if !r.Rect().In(sub.Bounds()) {
			t.Errorf("region %v not inside sub-image bounds %v", r, sub.Bounds())
		}
		if !r.Rect().Overlaps(area) {
			t.Errorf("region %v does not touch the bar area %v", r, area)
		}
	}
}

func TestEdgeDetector_MaxSizeLimitsScan(t *testing.T) {
	area := image.Rect(40, 40, 200, 80)
	img := newBarsFrame(240, 120, area)

	opts := DefaultOptions()
	opts.MinSize = image.Pt(60, 20)
	opts.MaxSize = image.Pt(70, 25)
	d, err := NewEdgeDetector(opts)
	if err != nil {
		t.Fatal(err)
	}
	regions, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	for _, r := range regions {
		if r.Width > 70 || r.Height > 25 {
			t.Errorf("region %v larger than MaxSize", r)
		}
	}
}

// newStripedFrame fills the whole frame with dark vertical stripes, the
// pattern of a fence or a barcode.
func newStripedFrame(width, height, period int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{200, 200, 200, 255}
			if x%period < period/2 {
				c = color.RGBA{20, 20, 20, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestEdgeDetector_StripedFrame(t *testing.T) {
	d, _ := NewEdgeDetector(DefaultOptions())

	for _, tt := range []struct {
		width, height, period int
	}{
		{320, 240, 8},
		{640, 480, 8},
		{640, 480, 12},
	} {
		img := newStripedFrame(tt.width, tt.height, tt.period)

		start := time.Now()
		regions, err := d.Detect(img)
		elapsed := time.Since(start)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if elapsed > 5*time.Second {
			t.Errorf("%dx%d period %d: Detect took %v", tt.width, tt.height, tt.period, elapsed)
		}
		if len(regions) != 0 {
			t.Errorf("%dx%d period %d: texture reported as plates: %v", tt.width, tt.height, tt.period, regions)
		}
	}
}

func TestEdgeDetector_PlateBesideTexture(t *testing.T) {
	// bars inside a plain frame, with a striped fence along the bottom
	area := image.Rect(40, 30, 200, 70)
	img := newBarsFrame(320, 240, area)
	fence := newStripedFrame(320, 240, 8)
	for y := 150; y < 240; y++ {
		copy(img.Pix[img.PixOffset(0, y):img.PixOffset(320, y)], fence.Pix[fence.PixOffset(0, y):fence.PixOffset(320, y)])
	}

	d, _ := NewEdgeDetector(DefaultOptions())
	regions, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	found := false
	for _, r := range regions {
		if r.Rect().Overlaps(area) {
			found = true
		}
		if r.Area()*4 > 320*240 {
			t.Errorf("region %v covers more than a quarter of the frame", r)
		}
	}
	if !found {
		t.Errorf("bar area %v not found, got %v", area, regions)
	}
}
