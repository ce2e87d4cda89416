package pipeline

import (
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/plateguard/internal/detection"
	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/plate"
)

// TextExtractor reads plate text from a crop. *ocr.Extractor implements it.
type TextExtractor interface {
	Extract(img image.Image) string
}

// Analysis is the read-only half of processing a frame: the detected
// regions and the text read from each, index-aligned.
type Analysis struct {
	Regions []plate.Region
	Texts   []string
}

// Processor processes single frames.
type Processor struct {
	detector  detection.Detector
	redactor  *imaging.Redactor
	extractor TextExtractor
	log       zerolog.Logger
}

// NewProcessor returns a Processor.
func NewProcessor(detector detection.Detector, redactor *imaging.Redactor, extractor TextExtractor, log zerolog.Logger) *Processor {
	return &Processor{
		detector:  detector,
		redactor:  redactor,
		extractor: extractor,
		log:       log,
	}
}

// Analyze detects plate regions in frame and reads the text of each one.
//
// frame is not modified. All crops are copied before any text is read, so
// the result does not depend on later redaction of the same frame. Analyze
// is safe for concurrent use on different frames.
func (p *Processor) Analyze(frame *image.RGBA) (Analysis, error) {
	regions, err := p.detector.Detect(frame)
	if err != nil {
		return Analysis{}, fmt.Errorf("detecting plates: %w", err)
	}

	crops := make([]image.Image, len(regions))
	for i, r := range regions {
		crop, err := imaging.Crop(frame, r)
		if err != nil {
			return Analysis{}, err
		}
		crops[i] = crop
	}

	texts := make([]string, len(crops))
	for i, crop := range crops {
		texts[i] = p.extractor.Extract(crop)
	}

	if len(regions) > 0 {
		p.log.Debug().Int("regions", len(regions)).Strs("texts", texts).Msg("frame analyzed")
	}
	return Analysis{Regions: regions, Texts: texts}, nil
}

// Apply merges the texts of a into session and blurs every region of a in
// frame. It returns the texts session had not seen before, in region order;
// the slice is empty, not nil, when there are none. Texts are reported in
// the trimmed form session stores.
func (p *Processor) Apply(frame *image.RGBA, a Analysis, session *plate.Session) ([]string, error) {
	found := []string{}
	for _, text := range a.Texts {
		if session.Add(text) {
			found = append(found, strings.TrimSpace(text))
		}
	}

	for _, r := range a.Regions {
		if _, err := p.redactor.Redact(frame, r); err != nil {
			return found, err
		}
	}
	return found, nil
}

// Process analyzes frame, records new texts in session and redacts every
// detected region in place. The returned frame is frame itself.
func (p *Processor) Process(frame *image.RGBA, session *plate.Session) (*image.RGBA, []string, error) {
	a, err := p.Analyze(frame)
	if err != nil {
		return frame, nil, err
	}
	found, err := p.Apply(frame, a, session)
	return frame, found, err
}
