// Package input loads investor names from user-supplied files. Spreadsheet
// formats carry one name per row; plain text arrives as a free-form blob
// and gets the full normalization treatment.
package input

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/investor-scout/internal/pipeline"
)

// ReadNames loads investor names from path, dispatching on the file
// extension. Supported: .csv, .xlsx, .txt.
func ReadNames(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return nil, eris.New("input: legacy .xls is not supported, save the sheet as .xlsx")
	case ".txt":
		return readText(path)
	default:
		return nil, eris.Errorf("input: unsupported file type %q", filepath.Ext(path))
	}
}

func readText(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: read text file")
	}
	return pipeline.NormalizeNames(string(raw)), nil
}

// cleanCells trims spreadsheet cells and drops blanks and fragments too
// short to be names. Cells are otherwise kept as-is: one row is one name,
// so the fused-name splitter never runs here.
func cleanCells(cells []string) []string {
	var names []string
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if len(c) <= 2 {
			continue
		}
		names = append(names, c)
	}
	return names
}
