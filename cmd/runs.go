package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/investor-scout/internal/model"
	"github.com/sells-group/investor-scout/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect batch run history",
	Long:  "Commands for listing, viewing, and summarizing past batch runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List batch runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		filter := store.BatchFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
			Offset: offset,
		}

		batches, err := st.ListBatches(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(batches) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatBatchList(os.Stdout, batches)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show full details of a batch run, result rows included",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		batch, err := st.GetBatch(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate batch statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		filter := store.BatchFilter{Limit: 10000} // high limit for stats
		batches, err := st.ListBatches(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		stats := computeBatchStats(batches)
		formatBatchStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, stopped, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "number of runs to skip")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// batchStats holds aggregate statistics computed from a set of batch runs.
type batchStats struct {
	Total      int
	Complete   int
	Stopped    int
	Failed     int
	Running    int
	Investors  int
	WithEmails int
	AvgDurSecs float64
}

// computeBatchStats computes aggregate statistics from a list of batch runs.
func computeBatchStats(batches []model.BatchRun) batchStats {
	var s batchStats
	s.Total = len(batches)

	var totalDur time.Duration
	var durCount int

	for _, b := range batches {
		s.Investors += b.Processed
		s.WithEmails += b.EmailsFound

		switch b.Status {
		case model.RunStatusComplete:
			s.Complete++
			totalDur += b.UpdatedAt.Sub(b.CreatedAt)
			durCount++
		case model.RunStatusStopped:
			s.Stopped++
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatBatchList writes a tabular list of batch runs to w.
func formatBatchList(out io.Writer, batches []model.BatchRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tPROGRESS\tEMAILS\tRESULTS_FILE\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t--------\t------\t------------\t-------\t--------")

	for _, b := range batches {
		dur := b.UpdatedAt.Sub(b.CreatedAt).Round(time.Second).String()

		results := b.ResultsFile
		if len(results) > 30 {
			results = results[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%s\t%s\t%s\n",
			truncateID(b.ID),
			b.Status,
			b.Processed,
			b.Total,
			b.EmailsFound,
			results,
			b.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatBatchStats writes aggregate stats to w.
func formatBatchStats(out io.Writer, s batchStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Stopped:\t%d\n", s.Stopped)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.Running)
	_, _ = fmt.Fprintf(w, "Investors processed:\t%d\n", s.Investors)
	_, _ = fmt.Fprintf(w, "With emails:\t%d\n", s.WithEmails)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
