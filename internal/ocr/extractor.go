package ocr

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/plateguard/internal/imaging"
)

// Extractor turns a plate crop into plate text.
//
// An Extractor is either enabled, bound to one Engine for its whole
// lifetime, or disabled. The variant is fixed at construction so Extract
// never re-checks engine availability.
type Extractor struct {
	engine   Engine
	backend  string
	language string
	log      zerolog.Logger
}

// Info describes the extractor state, e.g. for a server status response.
type Info struct {
	Available bool   `json:"available"`
	Backend   string `json:"backend,omitempty"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language,omitempty"`
}

// Disabled returns an extractor that never reads text.
func Disabled() *Extractor {
	return &Extractor{log: zerolog.Nop()}
}

// Enabled returns an extractor bound to engine. backend is only used for
// reporting.
func Enabled(engine Engine, backend, language string, log zerolog.Logger) *Extractor {
	return &Extractor{
		engine:   engine,
		backend:  backend,
		language: language,
		log:      log,
	}
}

// New builds an extractor from cfg.
//
// With the auto backend the library engine is tried first and then the
// tesseract binary. When no engine can be opened the returned extractor is
// disabled and a single warning explaining why is logged. New never fails.
func New(cfg Config, log zerolog.Logger) *Extractor {
	log = log.With().Str("component", "ocr").Logger()

	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}

	var candidates []string
	switch cfg.Backend {
	case "", BackendAuto:
		candidates = []string{BackendLibrary, BackendCLI}
	case BackendLibrary, BackendCLI:
		candidates = []string{cfg.Backend}
	case BackendDisabled:
		log.Info().Msg("plate text extraction disabled by configuration")
		return Disabled()
	default:
		log.Warn().Str("backend", cfg.Backend).Msg("unknown OCR backend; plate text extraction disabled")
		return Disabled()
	}

	var errs []error
	for _, backend := range candidates {
		engine, err := open(backend, language)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend, err))
			continue
		}
		log.Info().
			Str("backend", backend).
			Str("version", engine.Version()).
			Str("language", language).
			Msg("OCR engine ready")
		return Enabled(engine, backend, language, log)
	}

	log.Warn().Err(errors.Join(errs...)).Msg("OCR engine unavailable; plate text extraction disabled")
	return Disabled()
}

// Enabled reports whether the extractor has an engine.
func (e *Extractor) Enabled() bool { return e.engine != nil }

// Info returns the extractor state.
func (e *Extractor) Info() Info {
	if e.engine == nil {
		return Info{}
	}
	return Info{
		Available: true,
		Backend:   e.backend,
		Version:   e.engine.Version(),
		Language:  e.language,
	}
}

// Extract reads the text on a plate crop.
//
// The crop is converted to grayscale before recognition and the result is
// trimmed of surrounding whitespace. No other normalization is applied.
// Returns "" when the extractor is disabled or the engine fails.
func (e *Extractor) Extract(img image.Image) string {
	if e.engine == nil || img == nil || img.Bounds().Empty() {
		return ""
	}

	text, err := e.engine.Recognize(imaging.Grayscale(img))
	if err != nil {
		e.log.Trace().Err(err).Msg("OCR failed for crop")
		return ""
	}
	return strings.TrimSpace(text)
}

// Close releases the engine, if any.
func (e *Extractor) Close() error {
	if e.engine == nil {
		return nil
	}
	return e.engine.Close()
}
