// Package ocr reads plate text from cropped plate images using Tesseract.
//
// Two engines are available:
//
//   - library: gosseract bindings to libtesseract (requires cgo)
//   - cli: the tesseract binary run as a subprocess
//
// Both run in single-line mode (page segmentation mode 7) with the default
// engine mode, which is how a plate crop is best read.
//
// # Extractor
//
// Callers use Extractor, not an Engine directly. New probes the configured
// backend once and returns either an enabled extractor bound to a working
// engine or a disabled one. A disabled extractor returns "" for every call
// without touching Tesseract; the reason is logged once by New.
//
// Extract never fails. An engine error for a single crop is treated as "no
// readable text" and the pipeline continues.
//
// # Prerequisites
//
// Tesseract and its language data must be installed for either engine:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
package ocr
