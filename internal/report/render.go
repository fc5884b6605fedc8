package report

// render.go serializes a record subset into a CSV or XLSX attachment.
//
// Output is deterministic: given identical records and options, the bytes
// are reproducible. Every cell passes through sanitizeCell so residual
// formula artifacts, NUL bytes and embedded newlines cannot leak into the
// attachment, and XLSX cells are written as forced strings so the receiving
// spreadsheet never reinterprets content as formulas.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/medicampus/attendmail/internal/ingest"
	"github.com/xuri/excelize/v2"
)

// Format identifies the attachment encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat resolves the attachment format: explicit override first,
// then the uploaded file's format.
func DetectFormat(uploaded ingest.Format, override Format) Format {
	switch override {
	case FormatCSV, FormatXLSX:
		return override
	}
	if uploaded == ingest.FormatXLSX {
		return FormatXLSX
	}
	return FormatCSV
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}

// CSVOptions controls CSV attachment encoding.
type CSVOptions struct {
	Delimiter rune // field delimiter; 0 means comma
	BOM       bool // prepend a UTF-8 byte order mark
	SepHint   bool // prepend a "sep=<delim>" line for Excel
}

// RenderCSV encodes records as a CSV attachment with the fixed column
// order, quoted fields and CRLF line endings.
func RenderCSV(records []ingest.Record, opts CSVOptions) ([]byte, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	var buf bytes.Buffer
	if opts.BOM {
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
	}
	if opts.SepHint {
		buf.WriteString("sep=" + string(delim) + "\r\n")
	}

	w := csv.NewWriter(&buf)
	w.Comma = delim
	w.UseCRLF = true

	if err := w.Write(ingest.ColumnOrder); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(sanitizeRow(r.Row())); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// xlsxColWidth is the fixed width applied to every report column.
const xlsxColWidth = 20

// RenderXLSX encodes records as a single-sheet workbook. All cells are
// written with SetCellStr so values stay strings in the target application.
func RenderXLSX(records []ingest.Record, sheetName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sanitizeSheetName(sheetName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "I", xlsxColWidth); err != nil {
		return nil, fmt.Errorf("set column widths: %w", err)
	}

	writeRow := func(rowNum int, cells []string) error {
		for col, val := range cells {
			axis, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, axis, val); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, ingest.ColumnOrder); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}
	for i, r := range records {
		if err := writeRow(i+2, sanitizeRow(r.Row())); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Render encodes records in the requested format. sheetName only applies to
// XLSX output.
func Render(records []ingest.Record, format Format, sheetName string, csvOpts CSVOptions) ([]byte, error) {
	if format == FormatXLSX {
		return RenderXLSX(records, sheetName)
	}
	return RenderCSV(records, csvOpts)
}

func sanitizeRow(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = sanitizeCell(c)
	}
	return out
}

// sanitizeCell is the last line of defence before serialization: trim,
// strip residual formula artifacts, collapse newlines, drop NUL bytes.
func sanitizeCell(s string) string {
	s = ingest.CleanIdentifier(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// invalidSheetChars are forbidden in Excel sheet names.
var invalidSheetChars = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ",
)

// sanitizeSheetName clips a sheet name to Excel's rules: no forbidden
// characters, at most 31 characters, never empty.
func sanitizeSheetName(name string) string {
	name = strings.TrimSpace(invalidSheetChars.Replace(name))
	if name == "" {
		name = "Attendance"
	}
	if len(name) > 31 {
		name = strings.TrimSpace(name[:31])
	}
	return name
}
