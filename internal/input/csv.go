package input

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
)

// readCSV takes the first column of a CSV file, skipping the header row.
func readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Exported sheets often have ragged rows.
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "input: parse csv")
	}
	if len(records) < 2 {
		return nil, nil
	}

	var cells []string
	for _, rec := range records[1:] {
		if len(rec) > 0 {
			cells = append(cells, rec[0])
		}
	}
	return cleanCells(cells), nil
}
