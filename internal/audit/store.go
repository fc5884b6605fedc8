package audit

// store.go persists activity log entries in Postgres.
//
// Schema:
//
//	CREATE TABLE activity_logs (
//	    id            UUID PRIMARY KEY,
//	    file_name     TEXT NOT NULL,
//	    file_path     TEXT,
//	    total_records INT NOT NULL,
//	    emails_sent   JSONB NOT NULL DEFAULT '[]',
//	    uploaded_by   TEXT NOT NULL,
//	    overall_status TEXT NOT NULL,
//	    upload_date   TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrNotFound is returned when an activity log entry does not exist.
var ErrNotFound = errors.New("activity log entry not found")

// DefaultPageSize bounds paginated listing.
const DefaultPageSize = 50

// Service reads and writes activity log entries.
type Service struct {
	db DBTX
}

// NewService creates an audit service over the given pool.
func NewService(db DBTX) *Service {
	return &Service{db: db}
}

// Record inserts one entry and returns its id. Implements Recorder.
func (s *Service) Record(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.UploadDate.IsZero() {
		entry.UploadDate = time.Now().UTC()
	}
	if entry.EmailsSent == nil {
		entry.EmailsSent = []EmailRecord{}
	}

	sentJSON, err := json.Marshal(entry.EmailsSent)
	if err != nil {
		return "", fmt.Errorf("marshal emails_sent: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO activity_logs
			(id, file_name, file_path, total_records, emails_sent, uploaded_by, overall_status, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.FileName, toPgText(entry.FilePath), entry.TotalRecords,
		sentJSON, entry.UploadedBy, string(entry.Overall), entry.UploadDate)
	if err != nil {
		return "", fmt.Errorf("insert activity log: %w", err)
	}
	return entry.ID, nil
}

// List returns one page of entries, newest first, plus the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Entry, int64, error) {
	if limit <= 0 || limit > 500 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, file_name, COALESCE(file_path, ''), total_records, emails_sent,
		       uploaded_by, overall_status, upload_date
		FROM activity_logs
		ORDER BY upload_date DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

// GetByID returns a single entry, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, file_name, COALESCE(file_path, ''), total_records, emails_sent,
		       uploaded_by, overall_status, upload_date
		FROM activity_logs
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PurgeOlderThan deletes entries older than the horizon and removes their
// retained files best-effort. Returns the number of rows deleted.
func (s *Service) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	rows, err := s.db.Query(ctx, `
		DELETE FROM activity_logs
		WHERE upload_date < $1
		RETURNING COALESCE(file_path, '')
	`, horizon)
	if err != nil {
		return 0, fmt.Errorf("purge activity logs: %w", err)
	}
	defer rows.Close()

	var deleted int64
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return deleted, err
		}
		deleted++
		if path != "" {
			paths = append(paths, path)
		}
	}
	if err := rows.Err(); err != nil {
		return deleted, err
	}

	// File removal is best-effort: a missing file must not fail the purge.
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove retained file", "path", path, "error", err)
		}
	}
	return deleted, nil
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var entry Entry
	var sentJSON []byte
	var overall string
	var uploadDate pgtype.Timestamptz
	if err := rows.Scan(&entry.ID, &entry.FileName, &entry.FilePath, &entry.TotalRecords,
		&sentJSON, &entry.UploadedBy, &overall, &uploadDate); err != nil {
		return Entry{}, fmt.Errorf("scan activity log: %w", err)
	}
	entry.Overall = OverallStatus(overall)
	entry.UploadDate = uploadDate.Time
	if len(sentJSON) > 0 {
		if err := json.Unmarshal(sentJSON, &entry.EmailsSent); err != nil {
			return Entry{}, fmt.Errorf("unmarshal emails_sent: %w", err)
		}
	}
	if entry.EmailsSent == nil {
		entry.EmailsSent = []EmailRecord{}
	}
	return entry, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
