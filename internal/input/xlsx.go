package input

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// readXLSX takes the first column of the first sheet, skipping the header
// row.
func readXLSX(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("input: workbook has no sheets")
	}

	var cells []string
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) > 0 {
			cells = append(cells, row.Cells[0].String())
		}
	}
	return cleanCells(cells), nil
}
