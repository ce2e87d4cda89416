package pipeline

import (
	"context"
	"image"
)

// FrameSource yields decoded frames in stream order.
type FrameSource interface {
	// Next returns the next frame, or io.EOF when the stream is exhausted.
	// The returned frame is owned by the caller.
	Next() (*image.RGBA, error)

	Close() error
}

// FrameSink accepts encoded-output frames in order.
type FrameSink interface {
	Write(frame *image.RGBA) error

	// Close flushes and finalizes the output container.
	Close() error
}

// VideoCodec opens video files for reading and creates video files for
// writing.
type VideoCodec interface {
	Open(path string) (FrameSource, error)
	Create(path string, width, height int, fps float64) (FrameSink, error)
}

// Device is an open capture device.
type Device interface {
	// Read returns one frame. It must give up when ctx is done.
	Read(ctx context.Context) (*image.RGBA, error)

	Close() error
}

// Opener opens the capture device with the given index.
type Opener func(index int) (Device, error)
