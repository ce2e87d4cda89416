// Package pipeline runs plate detection, text extraction and redaction over
// a source of frames.
//
// Processor handles one frame: it detects plate regions, reads the text of
// every region from the unmodified frame, records new texts in a
// plate.Session and then blurs every region.
//
// Pipeline drives a Processor over a still image (ProcessImage) or a video
// file (ProcessVideo). Each call uses a fresh session and returns the
// distinct plate texts in first-occurrence order.
//
// Camera is the live source. It owns the capture device and a session that
// lives from Start to Stop, writing every processed frame to a fixed
// snapshot path.
//
// Video decoding, encoding and capture devices are reached through the
// FrameSource, FrameSink, VideoCodec and Device interfaces so this package
// has no OpenCV dependency; package video provides the gocv
// implementations.
package pipeline
