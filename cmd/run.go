package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/investor-scout/internal/browser"
	"github.com/sells-group/investor-scout/internal/input"
	"github.com/sells-group/investor-scout/internal/model"
	"github.com/sells-group/investor-scout/internal/pipeline"
	"github.com/sells-group/investor-scout/internal/sink"
	"github.com/sells-group/investor-scout/internal/store"
	"github.com/sells-group/investor-scout/pkg/notion"
)

var (
	runInput    string
	runNamesRaw string
	runNotionDB string
	runOutput   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run email discovery for a batch of investors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// SIGINT stops the batch cooperatively; completed rows still land
		// in the results file.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		names, err := gatherNames(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return eris.New("no investor names in input")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		mgr := browser.NewManager(cfg.Browser)
		defer mgr.Close() //nolint:errcheck

		runner, err := buildRunner(mgr, cfg.Batch)
		if err != nil {
			return err
		}

		outPath := runOutput
		if outPath == "" {
			outPath = fmt.Sprintf("results_%s.csv", time.Now().Format("20060102_150405"))
		}
		csvSink, err := sink.NewCSVSink(outPath)
		if err != nil {
			return err
		}

		rec, err := st.CreateBatch(ctx, len(names), outPath)
		if err != nil {
			return eris.Wrap(err, "create batch record")
		}
		snk := sink.Multi{csvSink, store.NewBatchSink(st, rec.ID, outPath)}

		zap.L().Info("batch starting",
			zap.String("batch_id", rec.ID),
			zap.Int("investors", len(names)),
			zap.String("results_file", outPath),
		)

		start := time.Now()
		results, runErr := runner.Run(ctx, names, snk, nil)

		status, errMsg := finalStatus(runErr, len(results), len(names))
		// The batch context is already cancelled when a signal stopped the
		// run, so the final record update gets a detached context.
		if err := st.CompleteBatch(context.WithoutCancel(ctx), rec.ID, status, errMsg); err != nil {
			zap.L().Warn("record final batch status", zap.String("batch_id", rec.ID), zap.Error(err))
		}
		if runErr != nil {
			return eris.Wrap(runErr, "batch run")
		}

		summary := runSummary{
			BatchID:      rec.ID,
			Status:       status,
			Total:        len(names),
			Processed:    len(results),
			EmailsFound:  model.InvestorsWithEmails(results),
			ResultsFile:  outPath,
			DurationSecs: time.Since(start).Seconds(),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "investor list file (.csv, .xlsx, or .txt)")
	runCmd.Flags().StringVar(&runNamesRaw, "names", "", "raw investor names (newline or bullet separated)")
	runCmd.Flags().StringVar(&runNotionDB, "notion-db", "", "Notion database ID to pull names from (default from config)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "results CSV path (default results_<timestamp>.csv)")
	rootCmd.AddCommand(runCmd)
}

// runSummary is the JSON printed to stdout after a batch finishes.
type runSummary struct {
	BatchID      string          `json:"batch_id"`
	Status       model.RunStatus `json:"status"`
	Total        int             `json:"total"`
	Processed    int             `json:"processed"`
	EmailsFound  int             `json:"emails_found"`
	ResultsFile  string          `json:"results_file"`
	DurationSecs float64         `json:"duration_secs"`
}

// gatherNames resolves the investor list from --input, --names, or the
// configured Notion database, in that order.
func gatherNames(ctx context.Context) ([]string, error) {
	switch {
	case runInput != "":
		return input.ReadNames(runInput)
	case runNamesRaw != "":
		return pipeline.NormalizeNames(runNamesRaw), nil
	}

	dbID := runNotionDB
	if dbID == "" {
		dbID = cfg.Notion.NamesDB
	}
	if dbID == "" || cfg.Notion.Token == "" {
		return nil, eris.New("no input: pass --input or --names, or configure notion.token and notion.names_db")
	}

	client := notion.NewClient(cfg.Notion.Token)
	return notion.ListNames(ctx, client, dbID, cfg.Notion.NameProperty)
}

// finalStatus maps a batch outcome onto the persisted run status. A stop
// surfaces as fewer completed rows than names, not as an error.
func finalStatus(runErr error, processed, total int) (model.RunStatus, string) {
	switch {
	case runErr != nil:
		return model.RunStatusFailed, runErr.Error()
	case processed < total:
		return model.RunStatusStopped, ""
	default:
		return model.RunStatusComplete, ""
	}
}
