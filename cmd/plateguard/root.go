package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/plateguard/internal/config"
)

// rootFlags are the persistent flags shared by every subcommand. Each one
// overrides the matching config value only when set.
type rootFlags struct {
	configPath string
	logLevel   string
	db         string
	user       string
	detector   string
	model      string
	ocr        string
	workers    int
}

// cli carries the resolved configuration and logger into subcommands.
type cli struct {
	flags rootFlags
	cfg   config.Config
	log   zerolog.Logger
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&cli{})
}

func buildRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "plateguard",
		Short:         "License plate detection, OCR and redaction",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.resolve(cmd)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("plateguard %s\n  Build time: %s\n  Git commit: %s\n", Version, BuildTime, GitCommit))

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.flags.db, "db", "", "history store: postgres:// URL or SQLite file path")
	pf.StringVar(&c.flags.user, "user", "", "user recorded in the run history")
	pf.StringVar(&c.flags.detector, "detector", "", "plate detector backend: cascade or edge")
	pf.StringVar(&c.flags.model, "model", "", "Haar cascade model file")
	pf.StringVar(&c.flags.ocr, "ocr", "", "OCR backend: auto, library, cli or disabled")
	pf.IntVar(&c.flags.workers, "workers", 0, "parallel frame analysis workers for video")

	root.AddCommand(
		newServeCmd(c),
		newImageCmd(c),
		newVideoCmd(c),
		newLiveCmd(c),
		newHistoryCmd(c),
	)
	return root
}

// resolve loads the configuration (defaults, file, environment, flags) and
// builds the root logger.
func (c *cli) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.flags.logLevel
	}
	if flags.Changed("db") {
		cfg.History.DSN = c.flags.db
	}
	if flags.Changed("user") {
		cfg.History.User = c.flags.user
	}
	if flags.Changed("detector") {
		cfg.Detector.Backend = c.flags.detector
	}
	if flags.Changed("model") {
		cfg.Detector.Model = c.flags.model
	}
	if flags.Changed("ocr") {
		cfg.OCR.Backend = c.flags.ocr
	}
	if flags.Changed("workers") {
		cfg.Video.Workers = c.flags.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.log = newLogger(cfg.LogLevel)
	return nil
}

// newLogger writes human-readable logs to stderr. stdout is reserved for
// command output and the MCP protocol.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
