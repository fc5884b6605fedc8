// Package ingest parses uploaded attendance exports (CSV or XLSX) into
// normalized records.
//
// The package is split along the two pipeline stages it implements:
//
//   - Parsing (ingest.go): byte-level hygiene, header validation against the
//     required column set, and formula-artifact cleanup. Emits records whose
//     timestamp fields still carry the raw cell text.
//   - Normalization (normalize.go): canonicalizes timestamps (Excel serial
//     day-counts and an ordered cascade of date layouts) and scrubs text
//     cells for safe downstream CSV emission.
package ingest

import "time"

// Canonical column headers as they appear in the attendance export.
// ColumnOrder is the fixed header order used when rendering reports.
const (
	ColSerialNo    = "S.No"
	ColAttendance  = "Attendance id"
	ColUserName    = "User Name"
	ColDesignation = "Users Designation"
	ColOffice      = "Office Locations"
	ColDivision    = "Division/Units"
	ColInTime      = "In Time"
	ColOutTime     = "Out Time"
	ColStatus      = "Status"
)

// ColumnOrder is the canonical header order for rendered reports.
var ColumnOrder = []string{
	ColSerialNo, ColAttendance, ColUserName, ColDesignation,
	ColOffice, ColDivision, ColInTime, ColOutTime, ColStatus,
}

// requiredColumns must all be present (case-insensitive, whitespace
// normalized) in an uploaded file. In Time / Out Time are optional because
// status-only exports omit them.
var requiredColumns = []string{
	ColSerialNo, ColAttendance, ColUserName, ColDesignation,
	ColOffice, ColDivision, ColStatus,
}

// Timestamp is a parsed attendance timestamp. Valid is false when the cell
// was empty or its content matched no known encoding; Raw preserves the
// original text in that case so nothing is silently dropped.
type Timestamp struct {
	Time  time.Time
	Valid bool
	Raw   string
}

// Display renders the timestamp as DD-MM-YYYY HH:mm, or the empty string
// when the value is absent or unparsed.
func (t Timestamp) Display() string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format("02-01-2006 15:04")
}

// On reports whether the timestamp falls on the given calendar day.
// Unparsed timestamps never match any day.
func (t Timestamp) On(day time.Time) bool {
	if !t.Valid {
		return false
	}
	y1, m1, d1 := t.Time.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Record is one attendance row. Every field is always present; values may be
// empty strings when the source cell was blank.
type Record struct {
	SerialNo       string
	AttendanceID   string
	UserName       string
	Designation    string
	OfficeLocation string
	Division       string
	InTime         Timestamp
	OutTime        Timestamp
	Status         string
}

// Row returns the record's cells in canonical column order, with timestamps
// rendered for display.
func (r Record) Row() []string {
	return []string{
		r.SerialNo,
		r.AttendanceID,
		r.UserName,
		r.Designation,
		r.OfficeLocation,
		r.Division,
		r.InTime.Display(),
		r.OutTime.Display(),
		r.Status,
	}
}
