package dispatch

// orchestrator.go runs the routing conditions sequentially with
// per-condition failure isolation.
//
// Every condition passes through the same runCondition combinator: a skip
// records a human-readable reason (and nothing in emails_sent), a success
// records one emails_sent entry per recipient address, and an error records
// exactly one failed entry and sets the run-level failure flag. Execution
// order is fixed so the accumulated audit state stays deterministic.

import (
	"context"
	"fmt"
	"time"

	"github.com/medicampus/attendmail/internal/audit"
	"github.com/medicampus/attendmail/internal/ingest"
	"github.com/medicampus/attendmail/internal/logging"
	"github.com/medicampus/attendmail/internal/recipients"
	"github.com/medicampus/attendmail/internal/report"
)

// WorkflowStatus summarizes whether every condition ran clean.
type WorkflowStatus string

const (
	AllConditionsCompleted WorkflowStatus = "ALL_CONDITIONS_COMPLETED"
	PartialSuccess         WorkflowStatus = "PARTIAL_SUCCESS"
)

// Outcome is the in-memory result of one condition.
type Outcome struct {
	Condition  string   `json:"condition"`
	Skipped    bool     `json:"skipped"`
	SkipReason string   `json:"skipReason,omitempty"`
	Error      string   `json:"error,omitempty"`
	Notes      []string `json:"notes,omitempty"`
	Sent       int      `json:"sent"` // emails_sent entries this condition produced
}

// RunReport is the full result of one dispatch run.
type RunReport struct {
	Outcomes   []Outcome           `json:"outcomes"`
	EmailsSent []audit.EmailRecord `json:"emailsSent"`
	Status     WorkflowStatus      `json:"status"`
}

// Orchestrator executes the routing conditions against a record set.
type Orchestrator struct {
	configs recipients.Store
	mailer  Mailer
	from    string
	format  report.Format // explicit override; empty infers from upload
	csvOpts report.CSVOptions
	now     func() time.Time
}

// NewOrchestrator wires the orchestrator. The mailer must be constructed by
// the caller (once, at process start) and is never rebuilt per condition.
func NewOrchestrator(configs recipients.Store, mailer Mailer, from string, format report.Format, csvOpts report.CSVOptions) *Orchestrator {
	return &Orchestrator{
		configs: configs,
		mailer:  mailer,
		from:    from,
		format:  format,
		csvOpts: csvOpts,
		now:     time.Now,
	}
}

// conditionResult is what a condition body hands back to the combinator.
type conditionResult struct {
	skipped bool
	reason  string
	notes   []string
	emails  []audit.EmailRecord
}

// condition is one entry in the ordered rule list.
type condition struct {
	name  string
	label string // recipient class label for failed emails_sent entries
	run   func(ctx context.Context) (conditionResult, error)
}

// Run executes every condition in order and aggregates the outcome. It
// never returns an error: per-condition failures are part of the report.
func (o *Orchestrator) Run(ctx context.Context, records []ingest.Record, uploaded ingest.Format) *RunReport {
	rep := &RunReport{Status: AllConditionsCompleted}
	logger := logging.FromContext(ctx)

	hasFailure := false
	for _, cond := range o.conditions(records, uploaded) {
		res, err := cond.run(ctx)

		outcome := Outcome{
			Condition:  cond.name,
			Skipped:    res.skipped,
			SkipReason: res.reason,
			Notes:      res.notes,
		}

		// Entries produced before a mid-condition failure are kept.
		rep.EmailsSent = append(rep.EmailsSent, res.emails...)
		outcome.Sent = len(res.emails)

		switch {
		case err != nil:
			hasFailure = true
			outcome.Skipped = false
			outcome.Error = err.Error()
			rep.EmailsSent = append(rep.EmailsSent, audit.EmailRecord{
				Recipient:     cond.label,
				RecipientType: cond.label,
				Status:        audit.SendFailed,
				ErrorMessage:  err.Error(),
				SentAt:        o.now().UTC(),
			})
			outcome.Sent++
			logger.Error("condition failed", "condition", cond.name, "error", err)
		case res.skipped:
			logger.Info("condition skipped", "condition", cond.name, "reason", res.reason)
		default:
			logger.Info("condition completed", "condition", cond.name, "recipients", len(res.emails))
		}

		rep.Outcomes = append(rep.Outcomes, outcome)
	}

	if hasFailure {
		rep.Status = PartialSuccess
	}
	return rep
}

// sendParams describes one report send within a condition.
type sendParams struct {
	emails        []string
	recipientType string
	department    string
	subject       string
	sheetName     string
	records       []ingest.Record
	uploaded      ingest.Format
}

// sendReport renders the attachment and dispatches it, returning one
// success emails_sent entry per recipient address.
func (o *Orchestrator) sendReport(ctx context.Context, p sendParams) ([]audit.EmailRecord, error) {
	format := report.DetectFormat(p.uploaded, o.format)

	attachment, err := report.Render(p.records, format, p.sheetName, o.csvOpts)
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", p.recipientType, err)
	}

	fileName := attachmentName(p.sheetName, o.now()) + format.Ext()
	_, err = o.mailer.Send(ctx, Message{
		From:    o.from,
		To:      p.emails,
		Subject: p.subject,
		Body: fmt.Sprintf("Please find attached the attendance report (%d records).",
			len(p.records)),
		Attachments: []Attachment{{Filename: fileName, Content: attachment}},
	})
	if err != nil {
		return nil, fmt.Errorf("send %s report: %w", p.recipientType, err)
	}

	sentAt := o.now().UTC()
	entries := make([]audit.EmailRecord, 0, len(p.emails))
	for _, addr := range p.emails {
		entries = append(entries, audit.EmailRecord{
			Recipient:     addr,
			RecipientType: p.recipientType,
			Department:    p.department,
			RecordCount:   len(p.records),
			Status:        audit.SendSuccess,
			SentAt:        sentAt,
		})
	}
	return entries, nil
}

// attachmentName builds a filesystem-safe attachment stem like
// "Attendance_Dean_02-01-2006".
func attachmentName(sheetName string, now time.Time) string {
	stem := "Attendance"
	if sheetName != "" {
		stem += "_" + sanitizeFileStem(sheetName)
	}
	return stem + "_" + now.Format("02-01-2006")
}

func sanitizeFileStem(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '_')
		}
	}
	return string(out)
}
