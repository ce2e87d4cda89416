// Package detection finds candidate licence plate regions in a frame.
//
// # Detectors
//
// Detector is the single-method contract every backend implements. Detection
// never mutates the frame: implementations receive an image.Image and only read
// from it. Regions are returned in the order the backend produces them; the
// pipeline preserves that order when accumulating recognized texts.
//
// Two backends are available:
//
//   - EdgeDetector (this package): a pure-Go multi-scale sliding window over a
//     gradient edge map. Windows with plate-like edge density and predominantly
//     vertical strokes become candidates.
//   - cascade.Detector (package internal/cascade): an OpenCV Haar cascade
//     trained for plates, loaded once at startup.
//
// # Options
//
// Both backends share Options:
//   - ScaleFactor: multiplicative step between search window scales. Values
//     closer to 1 search more scales and find more plates at a higher cost.
//   - MinNeighbors: how many overlapping raw hits a region needs before it is
//     reported. Higher values suppress false positives.
//   - MinSize / MaxSize: bounds on the search window size.
//
// # Grouping
//
// Raw candidate windows are clustered with GroupRegions, which follows the
// classic cascade grouping rule: windows whose corners are within a fraction
// of their size are equivalent, clusters with no more than MinNeighbors
// members are rejected, and each surviving cluster is reported as the average
// of its members.
package detection
