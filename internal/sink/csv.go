package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/investor-scout/internal/model"
)

// resultColumns defines the ordered result CSV output columns.
var resultColumns = []string{
	"investor_name",
	"type",
	"emails_found",
	"emails",
	"status",
	"timestamp",
}

// CSVSink writes results to a CSV file. Each Write replaces the file
// atomically, so a crash mid-checkpoint leaves the previous checkpoint
// intact.
type CSVSink struct {
	path string
}

// NewCSVSink creates the destination directory if needed.
func NewCSVSink(path string) (*CSVSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "sink: create results dir %s", dir)
	}
	return &CSVSink{path: path}, nil
}

func (s *CSVSink) Dest() string { return s.path }

func (s *CSVSink) Write(ctx context.Context, results []model.InvestorResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Stage in the same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return eris.Wrap(err, "sink: create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := writeRows(tmp, results); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "sink: close temp file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return eris.Wrapf(err, "sink: replace %s", s.path)
	}
	return nil
}

func writeRows(f *os.File, results []model.InvestorResult) error {
	w := csv.NewWriter(f)

	if err := w.Write(resultColumns); err != nil {
		return eris.Wrap(err, "sink: write header")
	}
	for _, r := range results {
		row := []string{
			r.InvestorName,
			string(r.Type),
			strconv.Itoa(r.EmailsFound),
			r.Emails,
			string(r.Status),
			r.Timestamp,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "sink: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "sink: flush rows")
	}
	return nil
}
