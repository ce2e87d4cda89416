package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ironsheep/plateguard/internal/cascade"
	"github.com/ironsheep/plateguard/internal/config"
	"github.com/ironsheep/plateguard/internal/detection"
	"github.com/ironsheep/plateguard/internal/history"
	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/ocr"
	"github.com/ironsheep/plateguard/internal/pipeline"
	"github.com/ironsheep/plateguard/internal/video"
)

// app holds the components built from a Config. Close releases them.
type app struct {
	cfg       config.Config
	log       zerolog.Logger
	extractor *ocr.Extractor
	proc      *pipeline.Processor
	history   history.Recorder
	closers   []io.Closer
}

// newApp builds the detector, redactor, OCR extractor and history store.
// The detector model is loaded here so a missing model fails at startup.
func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	detector, err := newDetector(cfg.Detector)
	if err != nil {
		return nil, err
	}
	if c, ok := detector.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	redactor, err := imaging.NewRedactor(cfg.Redact.KernelSize, cfg.Redact.Sigma)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.extractor = ocr.New(cfg.OCR, log)
	a.closers = append(a.closers, a.extractor)

	a.history, err = history.Open(ctx, cfg.History.DSN)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.history)

	a.proc = pipeline.NewProcessor(detector, redactor, a.extractor, log)
	ev := log.Debug().
		Str("detector", cfg.Detector.Backend).
		Int("blur_kernel", redactor.KernelSize()).
		Float64("blur_sigma", redactor.Sigma()).
		Interface("ocr", a.extractor.Info())
	if cd, ok := detector.(*cascade.Detector); ok {
		ev = ev.Str("model", cd.Path())
	}
	ev.Msg("components ready")
	return a, nil
}

func newDetector(cfg config.DetectorConfig) (detection.Detector, error) {
	switch cfg.Backend {
	case config.DetectorCascade:
		return cascade.New(cfg.Model, cfg.Options())
	case config.DetectorEdge:
		return detection.NewEdgeDetector(cfg.Options())
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}

// pipeline returns a Pipeline reporting each processed frame to onFrame,
// which may be nil.
func (a *app) pipeline(onFrame func(index int, found []string)) *pipeline.Pipeline {
	return pipeline.New(a.proc, video.Codec{FourCC: a.cfg.Video.FourCC}, pipeline.Options{
		FPS:     a.cfg.Video.FPS,
		Workers: a.cfg.Video.Workers,
		OnFrame: onFrame,
	}, a.log)
}

func (a *app) camera() *pipeline.Camera {
	return pipeline.NewCamera(a.proc, video.OpenCamera, pipeline.CameraConfig{
		Device:       a.cfg.Camera.Device,
		SnapshotPath: a.cfg.Camera.Snapshot,
		ReadTimeout:  a.cfg.Camera.ReadTimeout,
	}, a.log)
}

// record stores one run. Failures are logged; the output already exists.
func (a *app) record(ctx context.Context, kind, in, out string, plates []string) history.Run {
	run := history.NewRun(a.cfg.History.User, kind, in, out, plates)
	if err := a.history.RecordRun(ctx, run); err != nil {
		a.log.Warn().Err(err).Str("run", run.ID).Msg("failed to record run")
	}
	return run
}

// Close releases every component in reverse build order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
