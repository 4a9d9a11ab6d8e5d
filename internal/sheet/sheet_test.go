package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecpharm/internal/models"
)

// buildWorkbook writes rows to the first sheet of a new workbook and returns its bytes.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)

		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	return buf.Bytes()
}

func TestHeaderNames(t *testing.T) {
	got := HeaderNames([]string{"", "都道府県", "", "HP", "HP", "HP"})

	assert.Equal(t, []string{"Unnamed: 0", "都道府県", "Unnamed: 2", "HP", "HP.1", "HP.2"}, got)
}

func TestRead_SkipsSubHeaderRow(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"", "薬局等番号", "都道府県", "住所"},
		{"", "", "", ""},
		{1, 101, "東京都", "東京都新宿区西新宿２－８－１"},
		{2, "x", "北海道", ""},
	})

	frame, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Unnamed: 0", "薬局等番号", "都道府県", "住所"}, frame.Columns())
	require.Equal(t, 2, frame.Len())

	id, ok := frame.Value(0, "薬局等番号")
	assert.True(t, ok)
	assert.Equal(t, "101", id)

	addr, _ := frame.Value(1, "住所")
	assert.Nil(t, addr, "empty cells read as missing")

	_, ok = frame.Value(0, "HP")
	assert.False(t, ok)
}

func TestRead_KeepsColumnsUnderBlankTrailingHeaders(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"", "薬局等番号", "販売可能薬剤師数・性別", "", ""},
		{"", "", "女性", "男性", "答えたくない"},
		{1, 101, 1, 2, 3},
	})

	frame, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Unnamed: 0", "薬局等番号", "販売可能薬剤師数・性別", "Unnamed: 3", "Unnamed: 4"}, frame.Columns())
	require.Equal(t, 1, frame.Len())

	male, ok := frame.Value(0, "Unnamed: 3")
	assert.True(t, ok)
	assert.Equal(t, "2", male)

	other, ok := frame.Value(0, "Unnamed: 4")
	assert.True(t, ok)
	assert.Equal(t, "3", other)
}

func TestRead_EmptyWorkbook(t *testing.T) {
	data := buildWorkbook(t, nil)

	_, err := Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestRead_NotASpreadsheet(t *testing.T) {
	_, err := Read(strings.NewReader("<html>not a workbook</html>"))
	assert.Error(t, err)
}

func TestFrame_Operations(t *testing.T) {
	frame := NewFrame([]string{"Unnamed: 0", "a", "b"})
	frame.AppendRow([]any{"0", " x ", nil})
	frame.AppendRow([]any{"1", "y"})

	require.NoError(t, frame.Rename(map[string]string{"b": "c", "missing": "z"}))
	frame.Drop("Unnamed: 0", "missing")

	assert.Equal(t, []string{"a", "c"}, frame.Columns())

	assert.True(t, frame.Apply("a", func(v any) any { return strings.TrimSpace(v.(string)) }))
	assert.False(t, frame.Apply("HP", func(v any) any { return v }))

	frame.SetColumn("flag", func(i int) any { return i == 0 })

	assert.Equal(t, []any{"x", nil, true}, frame.Row(0))
	assert.Equal(t, []any{"y", nil, false}, frame.Row(1))

	assert.Error(t, frame.Rename(map[string]string{"a": "c"}))
}

func TestWriteXLSX(t *testing.T) {
	frame := NewFrame([]string{"薬局等番号", "都道府県", "時間外対応_有無"})
	frame.AppendRow([]any{12, "東京都", true})
	frame.AppendRow([]any{nil, "大阪府", false})

	meta := models.Meta{AsOf: "2026-01-27", SourcePage: "https://example.com/p", SourceXlsx: "https://example.com/content/a.xlsx", GeneratedAt: "2026-01-27T10:00:00", Records: 2}

	path := filepath.Join(t.TempDir(), "clean.xlsx")
	require.NoError(t, WriteXLSX(path, frame, meta))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{CleanSheet, MetaSheet}, f.GetSheetList())

	rows, err := f.GetRows(CleanSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"薬局等番号", "都道府県", "時間外対応_有無"}, rows[0])
	assert.Equal(t, "12", rows[1][0])
	assert.Equal(t, "", rows[2][0])
	assert.Equal(t, "大阪府", rows[2][1])

	metaRows, err := f.GetRows(MetaSheet)
	require.NoError(t, err)
	require.Len(t, metaRows, 2)
	assert.Equal(t, []string{"asOf", "sourcePage", "sourceXlsx", "generatedAt", "records"}, metaRows[0])
	assert.Equal(t, "2026-01-27", metaRows[1][0])
	assert.Equal(t, "2", metaRows[1][4])

	width, err := f.GetColWidth(CleanSheet, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(columnWidth), width)
}

func TestSetColumnWidths_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	err := setColumnWidths(f, "missing", 2)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	frame := NewFrame([]string{"薬局等番号", "薬局等名称", "事前電話連絡_要否"})
	frame.AppendRow([]any{7, "さくら薬局, 本店", true})
	frame.AppendRow([]any{nil, "", false})

	path := filepath.Join(t.TempDir(), "clean.csv")
	require.NoError(t, WriteCSV(path, frame))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := utf8BOM +
		"薬局等番号,薬局等名称,事前電話連絡_要否\n" +
		"7,\"さくら薬局, 本店\",True\n" +
		",,False\n"
	assert.Equal(t, want, string(data))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "1.5", FormatCell(1.5))
	assert.Equal(t, "3", FormatCell(3))
	assert.Equal(t, "False", FormatCell(false))
}
