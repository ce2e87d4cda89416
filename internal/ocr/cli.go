package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// cliTimeout bounds a single tesseract invocation.
const cliTimeout = 10 * time.Second

// cliEngine runs the tesseract binary once per crop.
type cliEngine struct {
	path     string
	language string
	version  string
}

func openCLI(language string) (Engine, error) {
	path, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out, err := exec.Command(path, "--version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract --version: %v", ErrUnavailable, err)
	}
	version := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])

	out, err = exec.Command(path, "--list-langs").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract --list-langs: %v", ErrUnavailable, err)
	}
	if !hasLanguage(string(out), language) {
		return nil, fmt.Errorf("%w: language data %q not installed", ErrUnavailable, language)
	}

	return &cliEngine{path: path, language: language, version: version}, nil
}

// hasLanguage reports whether the output of `tesseract --list-langs`
// includes language. The first line is a header.
func hasLanguage(listing, language string) bool {
	lines := strings.Split(listing, "\n")
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == language {
			return true
		}
	}
	return false
}

func (e *cliEngine) Recognize(img image.Image) (string, error) {
	// tesseract needs a file path
	tmpFile, err := os.CreateTemp("", "plate-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := imaging.Encode(tmpFile, img, imaging.PNG); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.path, tmpPath, "stdout",
		"--oem", "3", "--psm", "7", "-l", e.language)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

func (e *cliEngine) Version() string { return e.version }

func (e *cliEngine) Close() error { return nil }
