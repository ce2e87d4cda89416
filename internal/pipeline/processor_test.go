package pipeline

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/plateguard/internal/plate"
)

var (
	red   = color.RGBA{220, 30, 30, 255}
	green = color.RGBA{30, 200, 30, 255}
	blue  = color.RGBA{30, 30, 220, 255}
)

func TestProcessor_NoRegions(t *testing.T) {
	frame := newTaggedFrame(1)
	before := cloneFrame(frame)

	proc := newTestProcessor(t, &fakeDetector{}, &colorExtractor{})
	got, found, err := proc.Process(frame, plate.NewSession())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got != frame {
		t.Error("Process() should return the frame it was given")
	}
	if found == nil || len(found) != 0 {
		t.Errorf("found = %#v, want empty non-nil slice", found)
	}
	if !samePixels(frame, before, frame.Bounds()) {
		t.Error("frame changed with no regions")
	}
}

func TestProcessor_CropsTakenBeforeRedaction(t *testing.T) {
	a := plate.Region{X: 10, Y: 10, Width: 60, Height: 20}
	b := plate.Region{X: 50, Y: 10, Width: 30, Height: 20} // overlaps a

	frame := newTaggedFrame(1)
	paint(frame, a, red)
	paint(frame, b, green)

	det := &fakeDetector{byTag: map[uint8][]plate.Region{1: {a, b}}}
	ext := &colorExtractor{texts: map[color.RGBA]string{red: "RED1", green: "GRN2"}}

	_, found, err := newTestProcessor(t, det, ext).Process(frame, plate.NewSession())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []string{"RED1", "GRN2"}
	if len(found) != len(want) || found[0] != want[0] || found[1] != want[1] {
		t.Errorf("found = %v, want %v", found, want)
	}
}

func TestProcessor_DedupesAcrossCalls(t *testing.T) {
	r := plate.Region{X: 20, Y: 20, Width: 40, Height: 16}
	det := &fakeDetector{byTag: map[uint8][]plate.Region{1: {r}, 2: {r}, 3: {r}}}
	ext := &colorExtractor{texts: map[color.RGBA]string{red: "ABC123", blue: "XYZ789"}}
	proc := newTestProcessor(t, det, ext)
	session := plate.NewSession()

	steps := []struct {
		tag   uint8
		color color.RGBA
		want  []string
	}{
		{1, red, []string{"ABC123"}},
		{2, red, []string{}},
		{3, blue, []string{"XYZ789"}},
	}

	for _, step := range steps {
		frame := newTaggedFrame(step.tag)
		paint(frame, r, step.color)
		_, found, err := proc.Process(frame, session)
		if err != nil {
			t.Fatalf("frame %d: Process() error = %v", step.tag, err)
		}
		if len(found) != len(step.want) || (len(found) > 0 && found[0] != step.want[0]) {
			t.Errorf("frame %d: found = %v, want %v", step.tag, found, step.want)
		}
	}

	plates := session.Plates()
	if len(plates) != 2 || plates[0] != "ABC123" || plates[1] != "XYZ789" {
		t.Errorf("session plates = %v", plates)
	}
}

func TestProcessor_DuplicateRegionsInOneFrame(t *testing.T) {
	r1 := plate.Region{X: 10, Y: 10, Width: 40, Height: 16}
	r2 := plate.Region{X: 90, Y: 50, Width: 40, Height: 16}

	frame := newTaggedFrame(1)
	paint(frame, r1, red)
	paint(frame, r2, red)

	det := &fakeDetector{byTag: map[uint8][]plate.Region{1: {r1, r2}}}
	ext := &colorExtractor{texts: map[color.RGBA]string{red: "ABC123"}}

	_, found, err := newTestProcessor(t, det, ext).Process(frame, plate.NewSession())
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0] != "ABC123" {
		t.Errorf("found = %v, want [ABC123]", found)
	}
	if ext.calls != 2 {
		t.Errorf("extractor called %d times, want once per region", ext.calls)
	}
}

func TestProcessor_FoundTextsAreTrimmed(t *testing.T) {
	r := plate.Region{X: 10, Y: 10, Width: 40, Height: 16}
	frame := newTaggedFrame(1)
	paint(frame, r, red)

	det := &fakeDetector{byTag: map[uint8][]plate.Region{1: {r}}}
	ext := &colorExtractor{texts: map[color.RGBA]string{red: " ABC123 \n"}}
	session := plate.NewSession()

	_, found, err := newTestProcessor(t, det, ext).Process(frame, session)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0] != "ABC123" {
		t.Errorf("found = %q, want [\"ABC123\"]", found)
	}
	if got := session.Plates(); len(got) != 1 || got[0] != found[0] {
		t.Errorf("session plates = %q, want found %q", got, found)
	}
}

func TestProcessor_RedactsOnlyRegions(t *testing.T) {
	r := plate.Region{X: 30, Y: 20, Width: 50, Height: 20}
	frame := newTaggedFrame(1)
	paintChecker(frame, r)
	before := cloneFrame(frame)

	det := &fakeDetector{byTag: map[uint8][]plate.Region{1: {r}}}
	if _, _, err := newTestProcessor(t, det, &colorExtractor{}).Process(frame, plate.NewSession()); err != nil {
		t.Fatal(err)
	}

	if samePixels(frame, before, r.Rect()) {
		t.Error("region was not blurred")
	}
	b := frame.Bounds()
	for _, outside := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, r.Y),
		image.Rect(b.Min.X, r.Y+r.Height, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, r.Y, r.X, r.Y+r.Height),
		image.Rect(r.X+r.Width, r.Y, b.Max.X, r.Y+r.Height),
	} {
		if !samePixels(frame, before, outside) {
			t.Errorf("pixels changed outside region in %v", outside)
		}
	}
}

func TestProcessor_DetectorError(t *testing.T) {
	boom := errors.New("boom")
	proc := newTestProcessor(t, &fakeDetector{err: boom}, &colorExtractor{})
	if _, _, err := proc.Process(newTaggedFrame(1), plate.NewSession()); !errors.Is(err, boom) {
		t.Errorf("Process() error = %v, want %v", err, boom)
	}
}

func TestProcessor_InvalidRegion(t *testing.T) {
	det := &fakeDetector{byTag: map[uint8][]plate.Region{1: {{X: 150, Y: 80, Width: 40, Height: 40}}}}
	proc := newTestProcessor(t, det, &colorExtractor{})

	frame := newTaggedFrame(1)
	before := cloneFrame(frame)
	_, _, err := proc.Process(frame, plate.NewSession())
	if !errors.Is(err, plate.ErrInvalidRegion) {
		t.Errorf("Process() error = %v, want ErrInvalidRegion", err)
	}
	if !samePixels(frame, before, frame.Bounds()) {
		t.Error("frame modified despite invalid region")
	}
}
