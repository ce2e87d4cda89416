// Package plate defines the domain types shared by every stage of the plate
// detection and redaction pipeline.
//
// # Regions
//
// A Region is an axis-aligned rectangle in frame coordinates, produced by a
// detector and consumed by the redactor and the text extractor. Coordinates are
// 0-based with the origin at the top-left corner. A region is valid for a frame
// when it lies entirely inside the frame bounds and has positive area.
//
// # Sessions
//
// A Session accumulates the distinct, non-empty plate texts seen during one
// pipeline run, in first-occurrence order. Adding a text that is already present
// is a no-op, which is what suppresses duplicates across video frames.
//
// # Errors
//
// The error taxonomy is exposed as sentinel values so callers can classify
// failures with errors.Is:
//   - ErrModelLoad: the detection model could not be loaded (startup only)
//   - ErrDecode: an input image or video could not be decoded
//   - ErrDeviceUnavailable: the capture device could not be opened
//   - ErrInvalidRegion: a region fell outside the frame it was applied to
package plate
