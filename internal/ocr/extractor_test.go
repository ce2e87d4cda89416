package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// fakeEngine returns canned text and records what it was asked to read.
type fakeEngine struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	seen   []image.Image
	closed bool
}

func (f *fakeEngine) Recognize(img image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = append(f.seen, img)
	return f.text, f.err
}

func (f *fakeEngine) Version() string { return "fake 1.0" }

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func newColorCrop(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}
	return img
}

func TestExtractor_Disabled(t *testing.T) {
	e := Disabled()
	if e.Enabled() {
		t.Error("Disabled() reports enabled")
	}
	if got := e.Extract(newColorCrop(20, 10)); got != "" {
		t.Errorf("Extract() = %q, want empty", got)
	}
	if info := e.Info(); info.Available {
		t.Errorf("Info() = %+v, want unavailable", info)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestExtractor_TrimsWhitespace(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "ABC123", "ABC123"},
		{"trailing newline", "ABC123\n", "ABC123"},
		{"surrounding spaces", "  ABC 123 \t\n", "ABC 123"},
		{"whitespace only", " \n\f", ""},
		{"case kept", "abc123", "abc123"},
		{"punctuation kept", "AB-C12.3", "AB-C12.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Enabled(&fakeEngine{text: tt.raw}, "fake", "eng", zerolog.Nop())
			if got := e.Extract(newColorCrop(20, 10)); got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractor_EngineErrorIsEmpty(t *testing.T) {
	engine := &fakeEngine{text: "IGNORED", err: errors.New("malformed input")}
	e := Enabled(engine, "fake", "eng", zerolog.Nop())

	if got := e.Extract(newColorCrop(20, 10)); got != "" {
		t.Errorf("Extract() = %q, want empty on engine error", got)
	}
	if engine.calls != 1 {
		t.Errorf("engine called %d times, want 1", engine.calls)
	}
}

func TestExtractor_GrayscalesCrop(t *testing.T) {
	engine := &fakeEngine{text: "X"}
	e := Enabled(engine, "fake", "eng", zerolog.Nop())
	e.Extract(newColorCrop(8, 4))

	if len(engine.seen) != 1 {
		t.Fatalf("engine saw %d images", len(engine.seen))
	}
	img := engine.seen[0]
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) not gray: %d %d %d", x, y, r, g, b)
			}
		}
	}
}

func TestExtractor_EmptyCropSkipsEngine(t *testing.T) {
	engine := &fakeEngine{text: "X"}
	e := Enabled(engine, "fake", "eng", zerolog.Nop())
	if got := e.Extract(image.NewRGBA(image.Rectangle{})); got != "" {
		t.Errorf("Extract() = %q, want empty", got)
	}
	if engine.calls != 0 {
		t.Errorf("engine called for empty crop")
	}
}

func TestExtractor_Info(t *testing.T) {
	e := Enabled(&fakeEngine{}, "fake", "deu", zerolog.Nop())
	info := e.Info()
	want := Info{Available: true, Backend: "fake", Version: "fake 1.0", Language: "deu"}
	if info != want {
		t.Errorf("Info() = %+v, want %+v", info, want)
	}
}

func TestExtractor_CloseReleasesEngine(t *testing.T) {
	engine := &fakeEngine{}
	e := Enabled(engine, "fake", "eng", zerolog.Nop())
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if !engine.closed {
		t.Error("engine not closed")
	}
}

func TestNew_DisabledByConfig(t *testing.T) {
	var buf bytes.Buffer
	e := New(Config{Backend: BackendDisabled}, zerolog.New(&buf))
	if e.Enabled() {
		t.Error("expected disabled extractor")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	var buf bytes.Buffer
	e := New(Config{Backend: "magic"}, zerolog.New(&buf))
	if e.Enabled() {
		t.Error("expected disabled extractor")
	}
	if !strings.Contains(buf.String(), "magic") {
		t.Errorf("log should name the backend: %s", buf.String())
	}
}

func TestNew_UnavailableLoggedOnce(t *testing.T) {
	// no tesseract binary can be found on an empty PATH
	t.Setenv("PATH", t.TempDir())

	var buf bytes.Buffer
	e := New(Config{Backend: BackendCLI}, zerolog.New(&buf))
	if e.Enabled() {
		t.Fatal("expected disabled extractor without tesseract on PATH")
	}

	for i := 0; i < 5; i++ {
		e.Extract(newColorCrop(20, 10))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected exactly one log line, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "unavailable") {
		t.Errorf("log line should explain unavailability: %s", lines[0])
	}
}

func TestHasLanguage(t *testing.T) {
	listing := "List of available languages in \"/usr/share/tessdata/\" (3):\neng\nosd\ndeu\n"
	tests := []struct {
		lang string
		want bool
	}{
		{"eng", true},
		{"deu", true},
		{"fra", false},
		{"List", false},
	}
	for _, tt := range tests {
		if got := hasLanguage(listing, tt.lang); got != tt.want {
			t.Errorf("hasLanguage(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}
}
