package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ironsheep/plateguard/internal/history"
	"github.com/ironsheep/plateguard/internal/server"
)

func newVideoCmd(c *cli) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "video INPUT [OUTPUT]",
		Short: "Blur the license plates in every frame of a video",
		Long: `Blur the license plates in every frame of a video and print the distinct
plate texts read, in order of first appearance.

OUTPUT defaults to INPUT with a "_redacted.avi" suffix.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := args[0]
			out := server.RedactedPath(in, ".avi")
			if len(args) == 2 {
				out = args[1]
			}

			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.Close()

			var onFrame func(int, []string)
			var bar *progressbar.ProgressBar
			if !quiet {
				// frame count is unknown up front, so the bar runs as a spinner
				bar = progressbar.NewOptions64(-1,
					progressbar.OptionSetDescription("Redacting"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
				seen := 0
				onFrame = func(_ int, found []string) {
					seen += len(found)
					if len(found) > 0 {
						bar.Describe(fmt.Sprintf("Redacting (%d plates)", seen))
					}
					bar.Add(1)
				}
			}

			plates, err := a.pipeline(onFrame).ProcessVideo(ctx, in, out)
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			if err != nil {
				return err
			}
			run := a.record(ctx, history.SourceVideo, in, out, plates)
			printRun(cmd, run)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
