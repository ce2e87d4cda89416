// Package video implements the pipeline's frame I/O with OpenCV through
// gocv: decoding video files, encoding output video and reading a capture
// device.
package video
