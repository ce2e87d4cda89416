package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/plateguard/internal/history"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		user  string
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent image and video runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec, err := history.Open(ctx, c.cfg.History.DSN)
			if err != nil {
				return err
			}
			defer rec.Close()

			if user == "" && !all {
				user = c.cfg.History.User
			}
			runs, err := rec.ListRuns(ctx, user, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CREATED\tUSER\tKIND\tINPUT\tPLATES")
			fmt.Fprintln(w, "-------\t----\t----\t-----\t------")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.User, r.SourceKind, r.InputPath, strings.Join(r.Plates, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&user, "for", "", "only list runs by this user (default: the configured user)")
	cmd.Flags().BoolVar(&all, "all", false, "list runs by every user")
	cmd.Flags().IntVar(&limit, "limit", history.DefaultListLimit, "maximum number of runs")
	return cmd
}
