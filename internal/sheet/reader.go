package sheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Reader errors.
var (
	ErrNoSheet  = errors.New("workbook has no worksheets")
	ErrNoHeader = errors.New("worksheet has no header row")
)

// skipRows is the merged sub-header row under the header in the published workbook.
const skipRows = 1

// Read parses the first worksheet of a workbook read from r.
func Read(r io.Reader) (*Frame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	return fromWorkbook(f)
}

func fromWorkbook(f *excelize.File) (*Frame, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	// GetRows drops trailing blank cells, so the header can be shorter than the data.
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	header := make([]string, width)
	copy(header, rows[0])

	frame := NewFrame(HeaderNames(header))

	for i := 1 + skipRows; i < len(rows); i++ {
		cells := make([]any, len(rows[i]))
		for j, v := range rows[i] {
			if v != "" {
				cells[j] = v
			}
		}
		frame.AppendRow(cells)
	}

	return frame, nil
}

// HeaderNames turns a raw header row into unique column names. A blank cell at
// position i becomes "Unnamed: i"; a repeated name gets ".1", ".2" and so on.
func HeaderNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, h := range raw {
		name := h
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}

		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}

		seen[name] = 0
		names[i] = name
	}

	return names
}
