// Package config loads plateguard settings.
//
// Settings come from built-in defaults, then an optional YAML file, then
// PLATEGUARD_* environment variables. Command-line flags are applied last
// by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/plateguard/internal/detection"
	"github.com/ironsheep/plateguard/internal/imaging"
	"github.com/ironsheep/plateguard/internal/ocr"
	"github.com/ironsheep/plateguard/internal/pipeline"
)

// Detector backends.
const (
	DetectorCascade = "cascade"
	DetectorEdge    = "edge"
)

// DefaultModelPath is the Haar cascade loaded by the cascade backend.
const DefaultModelPath = "models/haarcascade_russian_plate_number.xml"

// Config is the full application configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Detector DetectorConfig `yaml:"detector"`
	Redact   RedactConfig   `yaml:"redact"`
	OCR      ocr.Config     `yaml:"ocr"`
	Video    VideoConfig    `yaml:"video"`
	Camera   CameraConfig   `yaml:"camera"`
	History  HistoryConfig  `yaml:"history"`
}

// DetectorConfig selects and tunes the plate detector.
type DetectorConfig struct {
	Backend      string  `yaml:"backend"`
	Model        string  `yaml:"model"`
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	MinWidth     int     `yaml:"min_width"`
	MinHeight    int     `yaml:"min_height"`
}

// RedactConfig sizes the redaction blur.
type RedactConfig struct {
	KernelSize int     `yaml:"kernel_size"`
	Sigma      float64 `yaml:"sigma"`
}

// VideoConfig controls video output.
type VideoConfig struct {
	FPS     float64 `yaml:"fps"`
	FourCC  string  `yaml:"fourcc"`
	Workers int     `yaml:"workers"`
}

// CameraConfig controls live capture.
type CameraConfig struct {
	Device      int           `yaml:"device"`
	Snapshot    string        `yaml:"snapshot"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// HistoryConfig locates the run history store.
type HistoryConfig struct {
	// DSN is a postgres:// URL or a SQLite file path. Empty disables
	// history.
	DSN string `yaml:"dsn"`

	// User is recorded as the owner of runs started from this process.
	User string `yaml:"user"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Detector: DetectorConfig{
			Backend:      DetectorCascade,
			Model:        DefaultModelPath,
			ScaleFactor:  detection.DefaultScaleFactor,
			MinNeighbors: detection.DefaultMinNeighbors,
		},
		Redact: RedactConfig{
			KernelSize: imaging.DefaultKernelSize,
			Sigma:      imaging.DefaultSigma,
		},
		OCR: ocr.Config{
			Backend:  ocr.BackendAuto,
			Language: ocr.DefaultLanguage,
		},
		Video: VideoConfig{
			FPS:     pipeline.DefaultFPS,
			FourCC:  "XVID",
			Workers: 1,
		},
		Camera: CameraConfig{
			Device:      0,
			Snapshot:    pipeline.DefaultSnapshotPath,
			ReadTimeout: pipeline.DefaultReadTimeout,
		},
		History: HistoryConfig{
			DSN:  "plateguard.db",
			User: "local",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Options returns the detector options described by c.
func (c DetectorConfig) Options() detection.Options {
	return detection.Options{
		ScaleFactor:  c.ScaleFactor,
		MinNeighbors: c.MinNeighbors,
		MinSize:      image.Pt(c.MinWidth, c.MinHeight),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q: want trace, debug, info, warn or error", c.LogLevel)
	}

	switch c.Detector.Backend {
	case DetectorCascade, DetectorEdge:
	default:
		return fmt.Errorf("detector backend %q: want %s or %s", c.Detector.Backend, DetectorCascade, DetectorEdge)
	}
	if c.Detector.Backend == DetectorCascade && c.Detector.Model == "" {
		return errors.New("detector model path is required for the cascade backend")
	}
	if c.Detector.MinWidth < 0 || c.Detector.MinHeight < 0 {
		return errors.New("detector min size must not be negative")
	}
	if err := c.Detector.Options().Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}

	if c.Redact.KernelSize <= 0 || c.Redact.KernelSize%2 == 0 {
		return fmt.Errorf("redact kernel size must be odd and positive, got %d", c.Redact.KernelSize)
	}
	if c.Redact.Sigma <= 0 {
		return fmt.Errorf("redact sigma must be positive, got %g", c.Redact.Sigma)
	}

	switch c.OCR.Backend {
	case "", ocr.BackendAuto, ocr.BackendLibrary, ocr.BackendCLI, ocr.BackendDisabled:
	default:
		return fmt.Errorf("ocr backend %q: want auto, library, cli or disabled", c.OCR.Backend)
	}

	if c.Video.FPS <= 0 {
		return fmt.Errorf("video fps must be positive, got %g", c.Video.FPS)
	}
	if len(c.Video.FourCC) != 4 {
		return fmt.Errorf("video fourcc %q must be four characters", c.Video.FourCC)
	}
	if c.Video.Workers < 1 {
		return fmt.Errorf("video workers must be at least 1, got %d", c.Video.Workers)
	}

	if c.Camera.Device < 0 {
		return fmt.Errorf("camera device must not be negative, got %d", c.Camera.Device)
	}
	if c.Camera.Snapshot == "" {
		return errors.New("camera snapshot path is required")
	}
	if err := imaging.CheckFormat(c.Camera.Snapshot); err != nil {
		return fmt.Errorf("camera snapshot: %w", err)
	}
	if c.Camera.ReadTimeout <= 0 {
		return fmt.Errorf("camera read timeout must be positive, got %v", c.Camera.ReadTimeout)
	}
	return nil
}

// ApplyEnv overrides settings from PLATEGUARD_* variables read through
// lookup. If PLATEGUARD_DB is unset but POSTGRES_HOST is, the history DSN is
// built from the POSTGRES_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(name); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = f
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	str("PLATEGUARD_LOG_LEVEL", &c.LogLevel)
	str("PLATEGUARD_DETECTOR", &c.Detector.Backend)
	str("PLATEGUARD_MODEL", &c.Detector.Model)
	float("PLATEGUARD_SCALE_FACTOR", &c.Detector.ScaleFactor)
	num("PLATEGUARD_MIN_NEIGHBORS", &c.Detector.MinNeighbors)
	num("PLATEGUARD_KERNEL_SIZE", &c.Redact.KernelSize)
	float("PLATEGUARD_SIGMA", &c.Redact.Sigma)
	str("PLATEGUARD_OCR", &c.OCR.Backend)
	str("PLATEGUARD_OCR_LANGUAGE", &c.OCR.Language)
	float("PLATEGUARD_FPS", &c.Video.FPS)
	str("PLATEGUARD_FOURCC", &c.Video.FourCC)
	num("PLATEGUARD_WORKERS", &c.Video.Workers)
	num("PLATEGUARD_CAMERA", &c.Camera.Device)
	str("PLATEGUARD_SNAPSHOT", &c.Camera.Snapshot)
	duration("PLATEGUARD_READ_TIMEOUT", &c.Camera.ReadTimeout)
	str("PLATEGUARD_USER", &c.History.User)

	if v, ok := lookup("PLATEGUARD_DB"); ok {
		// an explicitly empty value disables history
		c.History.DSN = v
	} else if host, ok := lookup("POSTGRES_HOST"); ok && host != "" {
		user, _ := lookup("POSTGRES_USER")
		pass, _ := lookup("POSTGRES_PASSWORD")
		name, _ := lookup("POSTGRES_DB")
		port, _ := lookup("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		c.History.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
	}

	return errors.Join(errs...)
}
