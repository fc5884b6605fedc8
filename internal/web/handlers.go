package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medicampus/attendmail/internal/audit"
	"github.com/medicampus/attendmail/internal/ingest"
)

// handleUpload accepts a multipart attendance export and runs the full
// dispatch synchronously. The response carries the per-condition outcomes
// so the caller can see skips and failures without consulting the
// activity log.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing file field", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "cannot read uploaded file", err)
		return
	}

	uploadedBy := strings.TrimSpace(r.FormValue("uploaded_by"))
	if uploadedBy == "" {
		uploadedBy = "system"
	}

	rep, err := s.engine.ProcessUpload(r.Context(), header.Filename, data, uploadedBy)
	if err != nil {
		var formatErr *ingest.FormatError
		if errors.As(err, &formatErr) {
			writeError(w, r, http.StatusUnprocessableEntity, formatErr.Error(), err)
			return
		}
		writeError(w, r, http.StatusBadRequest, "unable to process uploaded file", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     rep.Status,
		"fileName":   header.Filename,
		"outcomes":   rep.Outcomes,
		"emailsSent": rep.EmailsSent,
	})
}

// handleListActivity returns one page of activity log entries.
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", audit.DefaultPageSize)
	offset := queryInt(r, "offset", 0)

	entries, total, err := s.activity.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to list activity log", err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// handleGetActivity returns a single activity log entry.
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.activity.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "activity log entry not found", nil)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load activity log entry", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleActivityFile downloads the retained source file for an entry. When
// the file is gone (retention swept it, or retention was disabled) a
// regenerated emails_sent summary CSV is served instead.
func (s *Server) handleActivityFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.activity.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "activity log entry not found", nil)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load activity log entry", err)
		return
	}

	if entry.FilePath != "" {
		if f, err := os.Open(entry.FilePath); err == nil {
			defer f.Close()
			w.Header().Set("Content-Disposition",
				fmt.Sprintf("attachment; filename=%q", filepath.Base(entry.FileName)))
			w.Header().Set("Content-Type", "application/octet-stream")
			io.Copy(w, f)
			return
		}
	}

	summary, err := audit.SummaryCSV(*entry)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to build summary", err)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "summary_"+entry.ID+".csv"))
	w.Header().Set("Content-Type", "text/csv")
	w.Write(summary)
}

// handleCleanup triggers a retention sweep on demand. An optional
// max_age_days query parameter overrides the configured horizon.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "max_age_days", s.cfg.Retention.MaxAgeDays)
	if days <= 0 {
		writeError(w, r, http.StatusBadRequest, "max_age_days must be positive", nil)
		return
	}

	deleted, err := s.activity.Sweep(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "retention sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
