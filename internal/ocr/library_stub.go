//go:build !cgo || nogosseract

package ocr

import "fmt"

func openLibrary(language string) (Engine, error) {
	return nil, fmt.Errorf("%w: built without libtesseract bindings", ErrUnavailable)
}
