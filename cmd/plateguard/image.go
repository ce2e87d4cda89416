package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/plateguard/internal/history"
	"github.com/ironsheep/plateguard/internal/server"
)

func newImageCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "image INPUT [OUTPUT]",
		Short: "Blur the license plates in a still image",
		Long: `Blur the license plates in a still image and print the plate texts read.

OUTPUT defaults to INPUT with a "_redacted" suffix. Its extension selects
the output format.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := args[0]
			out := server.RedactedPath(in, "")
			if len(args) == 2 {
				out = args[1]
			}

			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.Close()

			plates, err := a.pipeline(nil).ProcessImage(ctx, in, out)
			if err != nil {
				return err
			}
			run := a.record(ctx, history.SourceImage, in, out, plates)
			printRun(cmd, run)
			return nil
		},
	}
}

func printRun(cmd *cobra.Command, run history.Run) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Output: %s\n", run.OutputPath)
	if len(run.Plates) == 0 {
		fmt.Fprintln(w, "No plates found.")
		return
	}
	fmt.Fprintf(w, "Plates (%d):\n", len(run.Plates))
	for _, p := range run.Plates {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
