package video

import (
	"errors"
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/pipeline"
	"github.com/ironsheep/plateguard/internal/plate"
)

// DefaultFourCC is the output codec.
const DefaultFourCC = "XVID"

// Codec opens and creates video files. The zero value writes XVID.
type Codec struct {
	// FourCC is the four-character code of the output codec.
	FourCC string
}

// Open implements pipeline.VideoCodec. The error wraps plate.ErrDecode
// when the file cannot be opened as a video.
func (c Codec) Open(path string) (pipeline.FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", plate.ErrDecode, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: cannot open video", plate.ErrDecode, path)
	}
	return &fileSource{
		capture: capture,
		mat:     gocv.NewMat(),
		total:   int(capture.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// Create implements pipeline.VideoCodec.
func (c Codec) Create(path string, width, height int, fps float64) (pipeline.FrameSink, error) {
	fourcc := c.FourCC
	if fourcc == "" {
		fourcc = DefaultFourCC
	}
	writer, err := gocv.VideoWriterFile(path, fourcc, fps, width, height, true)
	if err != nil {
		return nil, err
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("codec %s cannot write %s", fourcc, path)
	}
	return &fileSink{writer: writer}, nil
}

// fileSource reads frames from a video file.
type fileSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	total   int
	read    int
}

// Next implements pipeline.FrameSource.
//
// OpenCV reports the end of a stream and a decode failure the same way, so a
// failed read before the container's advertised frame count is treated as a
// decode error and anything else as io.EOF.
func (s *fileSource) Next() (*image.RGBA, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		if s.total > 0 && s.read < s.total {
			return nil, fmt.Errorf("%w: read failed at frame %d of %d", plate.ErrDecode, s.read, s.total)
		}
		return nil, io.EOF
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", plate.ErrDecode, s.read, err)
	}
	s.read++
	return imaging.ToRGBA(img), nil
}

func (s *fileSource) Close() error {
	return errors.Join(s.mat.Close(), s.capture.Close())
}

// fileSink encodes frames into a video file.
type fileSink struct {
	writer *gocv.VideoWriter
}

// Write implements pipeline.FrameSink.
func (s *fileSink) Write(frame *image.RGBA) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("converting frame: %w", err)
	}
	defer mat.Close()
	return s.writer.Write(mat)
}

func (s *fileSink) Close() error {
	return s.writer.Close()
}
