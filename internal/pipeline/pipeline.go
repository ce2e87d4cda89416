package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/plate"
)

// DefaultFPS is the frame rate of encoded output video.
const DefaultFPS = 20.0

// Options tune a Pipeline.
type Options struct {
	// FPS is the output video frame rate. Zero means DefaultFPS.
	FPS float64

	// Workers is the number of frames analyzed concurrently by
	// ProcessVideo. Values below 2 process frames one at a time.
	Workers int

	// OnFrame, if set, is called after each frame is written with the
	// frame's index and the texts first seen on it. Calls are made in
	// stream order from the goroutine running the pipeline.
	OnFrame func(index int, found []string)
}

// Pipeline runs a Processor over still images and video files.
type Pipeline struct {
	proc  *Processor
	codec VideoCodec
	opts  Options
	log   zerolog.Logger
}

// New returns a Pipeline. codec may be nil if ProcessVideo is never called.
func New(proc *Processor, codec VideoCodec, opts Options, log zerolog.Logger) *Pipeline {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		proc:  proc,
		codec: codec,
		opts:  opts,
		log:   log.With().Str("component", "pipeline").Logger(),
	}
}

// ProcessImage redacts the plates in the image at inputPath, writes the
// result to outputPath and returns the distinct plate texts found.
//
// The output format follows the extension of outputPath. When inputPath
// cannot be decoded the error wraps plate.ErrDecode and nothing is written.
func (p *Pipeline) ProcessImage(ctx context.Context, inputPath, outputPath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := imaging.CheckFormat(outputPath); err != nil {
		return nil, err
	}

	frame, err := imaging.LoadFrame(inputPath)
	if err != nil {
		return nil, err
	}

	session := plate.NewSession()
	_, found, err := p.proc.Process(frame, session)
	if err != nil {
		return nil, err
	}

	if err := imaging.SaveFrame(frame, outputPath); err != nil {
		return nil, err
	}
	p.observe(0, found)

	plates := session.Plates()
	p.log.Info().
		Str("input", inputPath).
		Str("output", outputPath).
		Strs("plates", plates).
		Msg("image processed")
	return plates, nil
}

// ProcessVideo redacts the plates in every frame of the video at inputPath,
// encodes the frames to outputPath and returns the distinct plate texts in
// first-occurrence order.
//
// Frames are encoded as they are processed at Options.FPS using the first
// frame's size. A stream with no frames produces an empty output file. If
// decoding fails part way, the frames read so far are kept and no error is
// returned; a failure on the first frame is an error wrapping
// plate.ErrDecode and nothing is written. When ctx is canceled the output is closed and ctx.Err() is
// returned. An input that cannot be opened yields an error wrapping
// plate.ErrDecode.
func (p *Pipeline) ProcessVideo(ctx context.Context, inputPath, outputPath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.codec == nil {
		return nil, errors.New("no video codec configured")
	}

	src, err := p.codec.Open(inputPath)
	if err != nil {
		if errors.Is(err, plate.ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", plate.ErrDecode, inputPath, err)
	}
	defer src.Close()

	out := &videoOutput{codec: p.codec, path: outputPath, fps: p.opts.FPS}
	session := plate.NewSession()

	if p.opts.Workers > 1 {
		err = p.runParallel(ctx, src, session, out)
	} else {
		err = p.runSequential(ctx, src, session, out)
	}
	if err != nil {
		out.abort()
		return nil, err
	}
	if err := out.finish(); err != nil {
		return nil, err
	}

	plates := session.Plates()
	p.log.Info().
		Str("input", inputPath).
		Str("output", outputPath).
		Int("frames", out.frames).
		Strs("plates", plates).
		Msg("video processed")
	return plates, nil
}

func (p *Pipeline) runSequential(ctx context.Context, src FrameSource, session *plate.Session, out *videoOutput) error {
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if index == 0 {
				return firstFrameError(err)
			}
			p.decodeFailed(index, err)
			return nil
		}

		_, found, err := p.proc.Process(frame, session)
		if err != nil {
			return fmt.Errorf("frame %d: %w", index, err)
		}
		if err := out.write(frame); err != nil {
			return err
		}
		p.observe(index, found)
	}
}

type frameTask struct {
	index int
	frame *image.RGBA
}

type frameResult struct {
	index    int
	frame    *image.RGBA
	analysis Analysis
	err      error
}

// runParallel analyzes frames on Options.Workers goroutines. Results are
// held in a reorder buffer and merged into session, redacted and encoded
// strictly in stream order, so the returned texts match a sequential run.
func (p *Pipeline) runParallel(ctx context.Context, src FrameSource, session *plate.Session, out *videoOutput) error {
	ctx, cancel := context.WithCancel(ctx)

	tasks := make(chan frameTask, p.opts.Workers)
	results := make(chan frameResult, p.opts.Workers*2)
	readerDone := make(chan struct{})

	var (
		decodeErr   error
		decodeIndex int
	)
	go func() {
		defer close(readerDone)
		defer close(tasks)
		for index := 0; ; index++ {
			frame, err := src.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					decodeErr, decodeIndex = err, index
				}
				return
			}
			select {
			case tasks <- frameTask{index: index, frame: frame}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				a, err := p.proc.Analyze(task.frame)
				select {
				case results <- frameResult{index: task.index, frame: task.frame, analysis: a, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// The source must not be closed while the reader is still using it.
	defer func() {
		cancel()
		for range results {
		}
		<-readerDone
	}()

	buffer := make(map[int]frameResult)
	next := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				<-readerDone
				if decodeErr != nil {
					if decodeIndex == 0 {
						return firstFrameError(decodeErr)
					}
					p.decodeFailed(decodeIndex, decodeErr)
				}
				return nil
			}
			buffer[res.index] = res

			for {
				r, ok := buffer[next]
				if !ok {
					break
				}
				delete(buffer, next)

				if err := ctx.Err(); err != nil {
					return err
				}
				if r.err != nil {
					return fmt.Errorf("frame %d: %w", r.index, r.err)
				}
				found, err := p.proc.Apply(r.frame, r.analysis, session)
				if err != nil {
					return fmt.Errorf("frame %d: %w", r.index, err)
				}
				if err := out.write(r.frame); err != nil {
					return err
				}
				p.observe(r.index, found)
				next++
			}
		}
	}
}

// firstFrameError reports a stream that opened but could not decode a single
// frame. It is an open failure, not a partial run.
func firstFrameError(err error) error {
	if errors.Is(err, plate.ErrDecode) {
		return err
	}
	return fmt.Errorf("%w: first frame: %v", plate.ErrDecode, err)
}

func (p *Pipeline) decodeFailed(index int, err error) {
	p.log.Warn().Err(err).Int("frame", index).Msg("video decode failed; keeping frames read so far")
}

func (p *Pipeline) observe(index int, found []string) {
	if p.opts.OnFrame != nil {
		p.opts.OnFrame(index, found)
	}
}

// videoOutput opens the encoder lazily on the first frame so the output
// takes that frame's size.
type videoOutput struct {
	codec  VideoCodec
	path   string
	fps    float64
	sink   FrameSink
	frames int
}

func (o *videoOutput) write(frame *image.RGBA) error {
	if o.sink == nil {
		b := frame.Bounds()
		if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		sink, err := o.codec.Create(o.path, b.Dx(), b.Dy(), o.fps)
		if err != nil {
			return fmt.Errorf("failed to create video %s: %w", o.path, err)
		}
		o.sink = sink
	}
	if err := o.sink.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", o.frames, err)
	}
	o.frames++
	return nil
}

// finish closes the encoder, or writes an empty file when no frame was
// ever written.
func (o *videoOutput) finish() error {
	if o.sink == nil {
		if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(o.path, nil, 0o644); err != nil {
			return fmt.Errorf("failed to write empty video: %w", err)
		}
		return nil
	}
	if err := o.sink.Close(); err != nil {
		return fmt.Errorf("failed to finalize video %s: %w", o.path, err)
	}
	return nil
}

func (o *videoOutput) abort() {
	if o.sink != nil {
		o.sink.Close()
	}
}
