package sheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"ecpharm/internal/models"
)

// Sheet names of the cleaned workbook.
const (
	CleanSheet = "clean"
	MetaSheet  = "meta"
)

// utf8BOM lets spreadsheet applications detect the CSV encoding.
const utf8BOM = "\xEF\xBB\xBF"

// columnWidth is the width of every written column, in characters.
const columnWidth = 18

var metaColumns = []string{"asOf", "sourcePage", "sourceXlsx", "generatedAt", "records"}

// WriteXLSX writes the clean table and a single-row meta sheet to path.
func WriteXLSX(path string, frame *Frame, meta models.Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CleanSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := writeTable(f, CleanSheet, frame.columns, frame.rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(MetaSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	metaRow := []any{meta.AsOf, meta.SourcePage, meta.SourceXlsx, meta.GeneratedAt, meta.Records}
	if err := writeTable(f, MetaSheet, metaColumns, [][]any{metaRow}); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

func writeTable(f *excelize.File, sheetName string, columns []string, rows [][]any) error {
	for i, header := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("invalid header cell: %w", err)
		}

		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header %q: %w", header, err)
		}
	}

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("invalid cell: %w", err)
			}

			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheetName, cell, err)
			}
		}
	}

	return setColumnWidths(f, sheetName, len(columns))
}

func setColumnWidths(f *excelize.File, sheetName string, n int) error {
	for i := range n {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("invalid column %d: %w", i+1, err)
		}

		if err := f.SetColWidth(sheetName, col, col, columnWidth); err != nil {
			return fmt.Errorf("failed to set width of %s!%s: %w", sheetName, col, err)
		}
	}

	return nil
}

// WriteCSV writes the clean table as UTF-8 CSV with a byte-order mark.
func WriteCSV(path string, frame *Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if _, err := buf.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(buf)

	if err := writer.Write(frame.columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(frame.columns))
	for r := range frame.Len() {
		for i, v := range frame.Row(r) {
			record[i] = FormatCell(v)
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return file.Close()
}

// FormatCell renders a cell for CSV output. Missing values are empty and
// booleans are True or False.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
