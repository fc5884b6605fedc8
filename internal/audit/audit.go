// Package audit persists one activity log entry per dispatch run and
// retires old entries under the configured retention policy.
//
// Entries are written once, at the end of a run (success or abort), and are
// never mutated afterwards. The emails_sent detail is stored as JSONB so
// the HTTP layer can regenerate a per-run summary without re-running the
// dispatch.
package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// SendStatus is the outcome of one attempted report send.
type SendStatus string

const (
	SendSuccess SendStatus = "success"
	SendFailed  SendStatus = "failed"
)

// OverallStatus summarizes a whole run.
type OverallStatus string

const (
	StatusCompleted OverallStatus = "completed"
	StatusPartial   OverallStatus = "partial"
	StatusFailed    OverallStatus = "failed"
)

// EmailRecord is one entry in a run's emails_sent detail.
type EmailRecord struct {
	Recipient     string     `json:"recipient"`
	RecipientType string     `json:"recipientType"`
	Department    string     `json:"department,omitempty"`
	RecordCount   int        `json:"recordCount,omitempty"`
	Status        SendStatus `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	SentAt        time.Time  `json:"sentAt"`
}

// Entry is one persisted activity log row.
type Entry struct {
	ID           string        `json:"id"`
	FileName     string        `json:"fileName"`
	FilePath     string        `json:"filePath,omitempty"`
	TotalRecords int           `json:"totalRecords"`
	EmailsSent   []EmailRecord `json:"emailsSent"`
	UploadedBy   string        `json:"uploadedBy"`
	Overall      OverallStatus `json:"overallStatus"`
	UploadDate   time.Time     `json:"uploadDate"`
}

// Recorder is the write interface the dispatch engine depends on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) (string, error)
}

// DeriveStatus computes the overall status from the emails_sent detail:
// completed when every entry succeeded (zero entries included), failed when
// at least one send was attempted and none succeeded, partial otherwise.
func DeriveStatus(sent []EmailRecord) OverallStatus {
	successes, failures := 0, 0
	for _, e := range sent {
		if e.Status == SendSuccess {
			successes++
		} else {
			failures++
		}
	}
	switch {
	case failures == 0:
		return StatusCompleted
	case successes == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// SummaryCSV regenerates a per-run summary attachment from the emails_sent
// detail, for audit entries whose original file is no longer retained.
func SummaryCSV(entry Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	header := []string{"Recipient", "Recipient Type", "Department", "Records", "Status", "Error", "Sent At"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write summary header: %w", err)
	}
	for _, e := range entry.EmailsSent {
		row := []string{
			e.Recipient,
			e.RecipientType,
			e.Department,
			strconv.Itoa(e.RecordCount),
			string(e.Status),
			e.ErrorMessage,
			e.SentAt.Format("02-01-2006 15:04"),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush summary: %w", err)
	}
	return buf.Bytes(), nil
}
