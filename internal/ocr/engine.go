package ocr

import (
	"errors"
	"image"
)

// ErrUnavailable is returned by engine constructors when Tesseract cannot
// be used on this host.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Backend names accepted in Config.Backend.
const (
	BackendAuto     = "auto"
	BackendLibrary  = "library"
	BackendCLI      = "cli"
	BackendDisabled = "disabled"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Config selects and configures the OCR engine.
type Config struct {
	// Backend is one of auto, library, cli or disabled. Empty means auto,
	// which tries the library engine first and then the binary.
	Backend string `yaml:"backend" json:"backend"`

	// Language is the Tesseract language code, e.g. "eng".
	Language string `yaml:"language" json:"language"`
}

// Engine recognizes a single line of text in an image.
type Engine interface {
	// Recognize returns the raw text found in img.
	Recognize(img image.Image) (string, error)

	// Version reports the underlying Tesseract version.
	Version() string

	// Close releases engine resources.
	Close() error
}

// open constructs the named engine.
func open(backend, language string) (Engine, error) {
	switch backend {
	case BackendLibrary:
		return openLibrary(language)
	case BackendCLI:
		return openCLI(language)
	default:
		return nil, errors.New("unknown ocr backend " + backend)
	}
}
