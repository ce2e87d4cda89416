package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/plate"
)

// Live capture defaults.
const (
	DefaultSnapshotPath = "static/frames/live.jpg"
	DefaultReadTimeout  = 2 * time.Second
)

// CameraConfig configures a Camera.
type CameraConfig struct {
	// Device is the capture device index.
	Device int

	// SnapshotPath is overwritten with every processed frame.
	SnapshotPath string

	// ReadTimeout bounds a single device read.
	ReadTimeout time.Duration
}

// Snapshot describes a processed live frame.
type Snapshot struct {
	Path  string   `json:"path"`
	Found []string `json:"found"`
}

// Camera is the live capture session.
//
// At most one device handle is open at a time. Device reads, session
// updates and device release all happen under one mutex, so Stop may be
// called while NextFrame is in flight. The plate session is created by
// Start and kept after Stop until the next Start; Plates never waits for a
// device read.
type Camera struct {
	proc *Processor
	open Opener
	cfg  CameraConfig
	log  zerolog.Logger

	mu      sync.Mutex
	running bool
	device  Device

	session atomic.Pointer[plate.Session]
}

// NewCamera returns a stopped Camera.
func NewCamera(proc *Processor, open Opener, cfg CameraConfig, log zerolog.Logger) *Camera {
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = DefaultSnapshotPath
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	c := &Camera{
		proc: proc,
		open: open,
		cfg:  cfg,
		log:  log.With().Str("component", "camera").Int("device", cfg.Device).Logger(),
	}
	c.session.Store(plate.NewSession())
	return c
}

// Start opens the capture device and begins a new plate session. Starting
// a running camera does nothing. The error wraps
// plate.ErrDeviceUnavailable when the device cannot be opened.
func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	device, err := c.openDevice()
	if err != nil {
		return err
	}

	c.device = device
	c.running = true
	c.session.Store(plate.NewSession())
	c.log.Info().Msg("capture started")
	return nil
}

func (c *Camera) openDevice() (Device, error) {
	device, err := c.open(c.cfg.Device)
	if err != nil {
		if errors.Is(err, plate.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: device %d: %v", plate.ErrDeviceUnavailable, c.cfg.Device, err)
	}
	return device, nil
}

// NextFrame reads one frame, processes it against the live session and
// writes it to the snapshot path.
//
// ok is false when the camera is stopped or no frame could be produced,
// e.g. the read timed out or the device was disconnected. None of these
// stop the session. A disconnected device is released and reopened on the
// next call.
func (c *Camera) NextFrame(ctx context.Context) (snap Snapshot, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return Snapshot{}, false
	}
	if c.device == nil {
		device, err := c.openDevice()
		if err != nil {
			c.log.Debug().Err(err).Msg("device still unavailable")
			return Snapshot{}, false
		}
		c.device = device
		c.log.Info().Msg("capture device reopened")
	}

	readCtx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	frame, err := c.device.Read(readCtx)
	cancel()
	if err != nil {
		if errors.Is(err, plate.ErrDeviceUnavailable) {
			c.log.Warn().Err(err).Msg("capture device lost; releasing")
			c.device.Close()
			c.device = nil
		} else {
			c.log.Debug().Err(err).Msg("no frame available")
		}
		return Snapshot{}, false
	}

	_, found, err := c.proc.Process(frame, c.session.Load())
	if err != nil {
		c.log.Warn().Err(err).Msg("frame processing failed")
		return Snapshot{}, false
	}
	if err := imaging.SaveFrameAtomic(frame, c.cfg.SnapshotPath); err != nil {
		c.log.Warn().Err(err).Msg("failed to write snapshot")
		return Snapshot{}, false
	}

	if len(found) > 0 {
		c.log.Info().Strs("plates", found).Msg("new plates")
	}
	return Snapshot{Path: c.cfg.SnapshotPath, Found: found}, true
}

// Stop ends capture and releases the device. Stopping a stopped camera
// does nothing.
func (c *Camera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	var err error
	if c.device != nil {
		err = c.device.Close()
		c.device = nil
	}
	c.log.Info().Int("plates", c.session.Load().Len()).Msg("capture stopped")
	return err
}

// Running reports whether capture is active.
func (c *Camera) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Plates returns the distinct texts seen since the last Start.
func (c *Camera) Plates() []string {
	return c.session.Load().Plates()
}

// SnapshotPath returns where live frames are written.
func (c *Camera) SnapshotPath() string { return c.cfg.SnapshotPath }
