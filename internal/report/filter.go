// Package report selects attendance record subsets and renders them into
// mail attachments with a fixed schema.
package report

// filter.go implements the record-subset policies used by the routing rules:
// target-date selection with an explicit status-only toggle, plus the
// designation and division filters for the specialised reports.

import (
	"strings"
	"time"

	"github.com/medicampus/attendmail/internal/ingest"
)

// IsLeaveOrAbsent reports whether a status cell matches the leave/absent
// vocabulary: contains "leave", equals "l" or "a", or contains "absent".
func IsLeaveOrAbsent(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return false
	}
	return strings.Contains(s, "leave") ||
		s == "l" ||
		s == "a" ||
		strings.Contains(s, "absent")
}

// DateFilter selects records for one calendar day.
//
// A record matches when its parsed in-time falls on Day, or — only when
// IncludeStatusOnly is set — when it has no usable in-time but its status
// matches the leave/absent vocabulary. The Dean's previous-day report runs
// with IncludeStatusOnly false; every current-day report runs with true.
type DateFilter struct {
	Day               time.Time
	IncludeStatusOnly bool
}

// Apply returns the subset of records matching the filter.
func (f DateFilter) Apply(records []ingest.Record) []ingest.Record {
	var out []ingest.Record
	for _, r := range records {
		if r.InTime.On(f.Day) {
			out = append(out, r)
			continue
		}
		if f.IncludeStatusOnly && !r.InTime.Valid && IsLeaveOrAbsent(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// FilterLeaveAbsent returns records whose status matches the leave/absent
// vocabulary, regardless of date.
func FilterLeaveAbsent(records []ingest.Record) []ingest.Record {
	var out []ingest.Record
	for _, r := range records {
		if IsLeaveOrAbsent(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// FilterDesignation returns records whose designation contains any of the
// given substrings, case-insensitively.
func FilterDesignation(records []ingest.Record, substrings ...string) []ingest.Record {
	var out []ingest.Record
	for _, r := range records {
		d := strings.ToLower(r.Designation)
		for _, sub := range substrings {
			if strings.Contains(d, strings.ToLower(sub)) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// FilterDivision returns records whose division matches the department under
// the normalization and synonym rules of DepartmentsMatch.
func FilterDivision(records []ingest.Record, department string) []ingest.Record {
	var out []ingest.Record
	for _, r := range records {
		if DepartmentsMatch(r.Division, department) {
			out = append(out, r)
		}
	}
	return out
}
