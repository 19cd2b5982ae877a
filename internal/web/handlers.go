package web

import (
	"mime"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/entityexport/internal/core"
	"github.com/JonMunkholm/entityexport/internal/web/views"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := views.UploadPageData{MaxFileSizeMB: s.cfg.Upload.MaxFileSize >> 20}
	if s.service.HistoryEnabled() {
		data.HistoryURL = "/api/history"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.UploadPage(data).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// handleDownload streams an archive of a finished run.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	path, err := s.service.ResolveArchive(chi.URLParam(r, "runID"), name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// handleHistory lists recent runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), parseLimit(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"runs":    runs,
	})
}

// handleStatus returns the conversion limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleHealth reports readiness. It fails once shutdown has begun.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.service.LimiterStatus()
	if status.Closed {
		s.respondError(w, r, core.ErrShuttingDown)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"activeConversions": status.Active,
		"historyEnabled":    s.service.HistoryEnabled(),
	})
}

// parseLimit reads ?limit= clamped to [1, maxHistoryLimit].
func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return defaultHistoryLimit
	}
	return min(n, maxHistoryLimit)
}
