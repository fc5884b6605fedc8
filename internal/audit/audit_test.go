package audit

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	success := EmailRecord{Status: SendSuccess}
	failed := EmailRecord{Status: SendFailed}

	tests := []struct {
		name string
		sent []EmailRecord
		want OverallStatus
	}{
		{"no entries", nil, StatusCompleted},
		{"all success", []EmailRecord{success, success}, StatusCompleted},
		{"all failed", []EmailRecord{failed}, StatusFailed},
		{"mixed", []EmailRecord{success, failed}, StatusPartial},
		{"many mixed", []EmailRecord{failed, success, failed, success}, StatusPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.sent); got != tt.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummaryCSV(t *testing.T) {
	entry := Entry{
		EmailsSent: []EmailRecord{
			{
				Recipient:     "dean@example.org",
				RecipientType: "Dean",
				RecordCount:   3,
				Status:        SendSuccess,
				SentAt:        time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC),
			},
			{
				Recipient:     "HOD",
				RecipientType: "HOD",
				Department:    "Radiology",
				Status:        SendFailed,
				ErrorMessage:  "smtp timeout",
				SentAt:        time.Date(2025, 3, 9, 10, 1, 0, 0, time.UTC),
			},
		},
	}

	out, err := SummaryCSV(entry)
	if err != nil {
		t.Fatalf("SummaryCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "Recipient,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "dean@example.org") || !strings.Contains(lines[1], "09-03-2025 10:00") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "smtp timeout") || !strings.Contains(lines[2], "Radiology") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestSummaryCSV_Empty(t *testing.T) {
	out, err := SummaryCSV(Entry{})
	if err != nil {
		t.Fatalf("SummaryCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(out), "\r\n"), "\r\n")
	if len(lines) != 1 {
		t.Errorf("empty entry should produce header only, got %q", lines)
	}
}
