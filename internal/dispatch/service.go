package dispatch

// service.go is the engine entry point: one call runs the whole pipeline
// for an uploaded attendance file.
//
// Ingestion or normalization failure aborts the run before any condition
// executes and still produces exactly one audit entry (overall status
// "failed" with a single synthetic emails_sent row). Once conditions start,
// the run always finishes all of them and produces exactly one audit entry
// on the way out. Audit persistence failure is logged and never changes the
// computed result.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/medicampus/attendmail/internal/audit"
	"github.com/medicampus/attendmail/internal/ingest"
	"github.com/medicampus/attendmail/internal/logging"
)

// Engine runs uploads end to end: parse, normalize, dispatch, audit.
type Engine struct {
	orch      *Orchestrator
	recorder  audit.Recorder
	retainDir string // empty disables source file retention
	format    ingest.Format
	now       func() time.Time
}

// NewEngine wires the engine. format forces the upload parser ("" infers
// from the file extension).
func NewEngine(orch *Orchestrator, recorder audit.Recorder, retainDir string, format ingest.Format) *Engine {
	return &Engine{
		orch:      orch,
		recorder:  recorder,
		retainDir: retainDir,
		format:    format,
		now:       time.Now,
	}
}

// ProcessUpload runs one dispatch for the uploaded file. The returned error
// is non-nil only for the pre-condition abort path (unusable file); every
// other failure is carried inside the RunReport.
func (e *Engine) ProcessUpload(ctx context.Context, fileName string, data []byte, uploadedBy string) (*RunReport, error) {
	logger := logging.WithFields(ctx, "file", fileName, "uploaded_by", uploadedBy)

	format := ingest.DetectFormat(fileName, e.format)
	records, err := ingest.Parse(data, format)
	if err != nil {
		logger.Error("upload rejected", "error", err)
		e.recordAbort(ctx, fileName, uploadedBy, err)
		return nil, err
	}
	records = ingest.Normalize(records)
	logger.Info("upload parsed", "format", format, "records", len(records))

	filePath := e.retainFile(ctx, fileName, data)

	rep := e.orch.Run(ctx, records, format)

	entry := audit.Entry{
		FileName:     fileName,
		FilePath:     filePath,
		TotalRecords: len(records),
		EmailsSent:   rep.EmailsSent,
		UploadedBy:   uploadedBy,
		Overall:      audit.DeriveStatus(rep.EmailsSent),
		UploadDate:   e.now().UTC(),
	}
	if _, err := e.recorder.Record(ctx, entry); err != nil {
		// Persistence failure never alters the already-computed result.
		logger.Error("failed to persist activity log", "error", err)
	}

	logger.Info("dispatch finished",
		"status", rep.Status,
		"overall", entry.Overall,
		"emails_sent", len(rep.EmailsSent),
	)
	return rep, nil
}

// recordAbort writes the single failed audit entry for the pre-condition
// abort path.
func (e *Engine) recordAbort(ctx context.Context, fileName, uploadedBy string, cause error) {
	entry := audit.Entry{
		FileName:   fileName,
		UploadedBy: uploadedBy,
		Overall:    audit.StatusFailed,
		UploadDate: e.now().UTC(),
		EmailsSent: []audit.EmailRecord{{
			Recipient:     "-",
			RecipientType: "system",
			Status:        audit.SendFailed,
			ErrorMessage:  cause.Error(),
			SentAt:        e.now().UTC(),
		}},
	}
	if _, err := e.recorder.Record(ctx, entry); err != nil {
		logging.FromContext(ctx).Error("failed to persist abort activity log", "error", err)
	}
}

// retainFile stores the uploaded bytes for later audit download.
// Best-effort: failure to retain is logged and the run continues.
func (e *Engine) retainFile(ctx context.Context, fileName string, data []byte) string {
	if e.retainDir == "" {
		return ""
	}
	if err := os.MkdirAll(e.retainDir, 0o755); err != nil {
		logging.FromContext(ctx).Warn("cannot create retain dir", "dir", e.retainDir, "error", err)
		return ""
	}
	name := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(fileName))
	path := filepath.Join(e.retainDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logging.FromContext(ctx).Warn("cannot retain uploaded file", "path", path, "error", err)
		return ""
	}
	return path
}
