package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/plateguard/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run the MCP server on stdin/stdout.

Configure it in your MCP client (e.g., Claude Desktop) with the command
"plateguard serve". Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.Close()

			cam := a.camera()
			defer cam.Stop()

			c.log.Info().
				Str("version", Version).
				Str("build_time", BuildTime).
				Str("commit", GitCommit).
				Msg("plateguard MCP server starting")

			srv := server.New(server.Config{
				Files:   a.pipeline(nil),
				Live:    cam,
				History: a.history,
				OCR:     a.extractor.Info(),
				User:    c.cfg.History.User,
				Version: Version,
			}, c.log)
			return srv.Run(ctx)
		},
	}
}
