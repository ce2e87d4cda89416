//go:build cgo && !nogosseract

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// libraryEngine drives libtesseract through gosseract.
//
// A gosseract client is not safe for concurrent use, so calls are
// serialized.
type libraryEngine struct {
	mu      sync.Mutex
	client  *gosseract.Client
	version string
}

func openLibrary(language string) (Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set language: %v", ErrUnavailable, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set page segmentation mode: %v", ErrUnavailable, err)
	}

	// gosseract initializes lazily, so recognize a blank image to surface
	// missing language data now rather than on the first plate.
	blank := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	e := &libraryEngine{client: client}
	if _, err := e.Recognize(blank); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	e.version = client.Version()
	return e, nil
}

func (e *libraryEngine) Recognize(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode crop: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

func (e *libraryEngine) Version() string { return e.version }

func (e *libraryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
