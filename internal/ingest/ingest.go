package ingest

// ingest.go parses an uploaded attendance export into records.
//
// The parser is a pure transform over the provided bytes: it validates that
// all required columns are present (case-insensitive, whitespace-normalized
// match), strips spreadsheet formula artifacts from identifier-like fields,
// and emits one record per non-blank row. Timestamp cells keep their raw
// text; Normalize canonicalizes them afterwards.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies the encoding of an uploaded file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat resolves the file format from an explicit override, falling
// back to the file extension. Anything that is not .xlsx is treated as CSV.
func DetectFormat(fileName string, override Format) Format {
	if override == FormatCSV || override == FormatXLSX {
		return override
	}
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// FormatError reports an upload that is structurally unusable: empty input
// or missing required columns. It aborts the run before any dispatch
// condition executes.
type FormatError struct {
	Missing []string // names of required columns absent from the header
	Reason  string   // set when the problem is not missing columns
}

func (e *FormatError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid attendance file: missing required columns: %s",
			strings.Join(e.Missing, ", "))
	}
	return "invalid attendance file: " + e.Reason
}

// ParseError reports bytes that could not be read as the declared format.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unreadable %s file: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads raw file bytes in the given format and returns one record per
// non-blank data row. Timestamp fields carry raw text until Normalize runs.
func Parse(data []byte, format Format) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FormatError{Reason: "file is empty"}
	}

	var rows [][]string
	var err error
	switch format {
	case FormatXLSX:
		rows, err = parseXLSX(data)
	default:
		rows, err = parseCSV(data)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &FormatError{Reason: "file has no header row"}
	}

	idx, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		cell := func(name string) string {
			pos, ok := idx[headerKey(name)]
			if !ok || pos >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[pos])
		}
		records = append(records, Record{
			SerialNo:       CleanIdentifier(cell(ColSerialNo)),
			AttendanceID:   CleanIdentifier(cell(ColAttendance)),
			UserName:       cell(ColUserName),
			Designation:    cell(ColDesignation),
			OfficeLocation: cell(ColOffice),
			Division:       cell(ColDivision),
			InTime:         Timestamp{Raw: cell(ColInTime)},
			OutTime:        Timestamp{Raw: cell(ColOutTime)},
			Status:         cell(ColStatus),
		})
	}
	return records, nil
}

// parseCSV reads all rows, tolerating ragged row lengths and stray quotes.
func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(wrapReader(bytes.NewReader(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: FormatCSV, Err: err}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseXLSX reads the first sheet of a workbook. Raw cell values are
// requested so Excel serial timestamps arrive as numeric strings for the
// normalizer instead of locale-formatted dates.
func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: err}
	}
	return rows, nil
}

// headerKey normalizes a header cell for matching: formula artifacts
// removed, lowercased, inner whitespace collapsed.
func headerKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(CleanIdentifier(s))), " ")
}

// headerIndex maps normalized header names to their positions, failing with
// a FormatError that enumerates every missing required column.
func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := headerKey(h)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[headerKey(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &FormatError{Missing: missing}
	}
	return idx, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// CleanIdentifier strips spreadsheet formula artifacts (the ="value" noise
// Excel adds to preserve leading zeros) from an identifier-like cell.
// The grammar is three ordered steps:
//
//  1. strip a leading '=' together with any quotes that follow it
//  2. strip trailing quotes
//  3. strip embedded quotes
func CleanIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "=") {
		s = strings.TrimLeft(s[1:], `"'`)
	}
	s = strings.TrimRight(s, `"'`)
	s = strings.ReplaceAll(s, `"`, "")

	return strings.TrimSpace(s)
}
