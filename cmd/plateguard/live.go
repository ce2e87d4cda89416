package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLiveCmd(c *cli) *cobra.Command {
	var (
		interval time.Duration
		frames   int
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Redact plates from the camera until interrupted",
		Long: `Capture frames from the configured camera, blur the plates and keep the
latest redacted frame in the snapshot file. Newly read plates are printed as
they appear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %v", interval)
			}
			if frames < 0 {
				return fmt.Errorf("--frames must not be negative, got %d", frames)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.Close()

			cam := a.camera()
			if err := cam.Start(); err != nil {
				return err
			}
			defer cam.Stop()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Writing frames to %s (Ctrl+C to stop)\n", cam.SnapshotPath())

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			processed := 0
		loop:
			for frames <= 0 || processed < frames {
				if snap, ok := cam.NextFrame(ctx); ok {
					processed++
					for _, p := range snap.Found {
						fmt.Fprintf(w, "%s  %s\n", time.Now().Format(time.TimeOnly), p)
					}
				}
				select {
				case <-ctx.Done():
					break loop
				case <-ticker.C:
				}
			}

			plates := cam.Plates()
			fmt.Fprintf(w, "Session plates (%d): %s\n", len(plates), strings.Join(plates, ", "))
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "delay between frames")
	cmd.Flags().IntVar(&frames, "frames", 0, "stop after this many processed frames (0 = until interrupted)")
	return cmd
}
