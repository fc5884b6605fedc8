package ingest

// normalize.go canonicalizes parsed records.
//
// Timestamp cells in the wild arrive in two encodings: Excel serial
// day-counts (45234.354167) and a dozen textual layouts. The text layouts
// are tried as an ordered, data-driven cascade with day-first layouts ahead
// of month-first ones, so "01/02/2025" resolves to 1 February rather than
// 2 January. A cell that matches nothing keeps its raw text and is treated
// as unparsed downstream.

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// excelEpoch is the zero day of the Excel serial date system. Day 1 is
// 1900-01-01; the 1899-12-30 base absorbs Excel's fictitious 1900 leap day.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// timestampLayouts is the ordered parser cascade. Day-first layouts come
// first to win the "01/02" ambiguity; ISO and month-first layouts follow.
// The first layout that parses the full string wins.
var timestampLayouts = []string{
	// day-first, with time
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2-1-2006 15:04",
	// day-first, date only
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	// day-first, two-digit year
	"02/01/06 15:04",
	"02/01/06",
	"02-01-06",
	// ISO
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	// month-first, last resort
	"01/02/2006 15:04",
	"01/02/2006",
}

// Normalize canonicalizes every record in place and returns the slice:
// timestamps are parsed, text cells scrubbed. Row count is preserved.
func Normalize(records []Record) []Record {
	for i := range records {
		r := &records[i]
		r.SerialNo = CleanText(r.SerialNo)
		r.AttendanceID = CleanText(r.AttendanceID)
		r.UserName = CleanText(r.UserName)
		r.Designation = CleanText(r.Designation)
		r.OfficeLocation = CleanText(r.OfficeLocation)
		r.Division = CleanText(r.Division)
		r.Status = CleanText(r.Status)
		r.InTime = ParseTimestamp(r.InTime.Raw)
		r.OutTime = ParseTimestamp(r.OutTime.Raw)
	}
	return records
}

// ParseTimestamp converts a raw cell into a Timestamp. Numeric values are
// Excel serial day-counts; textual values run the layout cascade. Anything
// unrecognized is preserved as unparsed raw text.
func ParseTimestamp(raw string) Timestamp {
	s := strings.TrimSpace(CleanIdentifier(raw))
	if s == "" {
		return Timestamp{}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return Timestamp{Raw: s}
		}
		return fromSerial(serial)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, Valid: true}
		}
	}

	return Timestamp{Raw: s}
}

// fromSerial converts an Excel serial day-count to a timestamp. The integer
// part counts days from the epoch; the fraction encodes time-of-day.
// Rounded to the second to absorb float representation error.
func fromSerial(serial float64) Timestamp {
	days := int(serial)
	frac := serial - float64(days)
	t := excelEpoch.AddDate(0, 0, days).
		Add(time.Duration(frac*float64(24*time.Hour))).
		Round(time.Second)
	return Timestamp{Time: t, Valid: true}
}

// CleanText scrubs a text cell for safe CSV emission: CR/LF runs collapse
// to a single space, other control characters and NULs are dropped, embedded
// quotes removed, and the result is trimmed.
func CleanText(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case r == '\r' || r == '\n':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r == '"' || r == 0:
			// dropped
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
