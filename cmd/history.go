// File: cmd/history.go
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/otto-cli/internal/observability"
	"github.com/xkilldash9x/otto-cli/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent tool invocations from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("invalid --limit %d: must be positive", limit)
			}
			jcfg := cfg.Journal()
			if !jcfg.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "The journal is disabled.")
				return nil
			}

			journal, err := store.Open(cmd.Context(), true, jcfg.Path, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer journal.Close()

			recs, err := journal.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to read journal: %w", err)
			}
			if asJSON {
				if recs == nil {
					recs = []store.Record{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			return writeHistory(cmd.OutOrStdout(), recs, time.Now())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of invocations to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as JSON")
	return cmd
}

func writeHistory(w io.Writer, recs []store.Record, now time.Time) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No invocations recorded yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTOOL\tOUTCOME\tELAPSED\tDETAIL")
	for _, r := range recs {
		detail := r.ErrorCode
		if r.Message != "" {
			if detail != "" {
				detail += ": "
			}
			detail += r.Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			r.Tool, r.Outcome, r.Elapsed.Round(time.Millisecond), detail)
	}
	return tw.Flush()
}
