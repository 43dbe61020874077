package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/claude/gainz/internal/ingest"
	"github.com/claude/gainz/internal/storage"
	"github.com/claude/gainz/internal/workout"
	"github.com/klauspost/compress/gzip"
)

// maxImportBytes caps an uploaded export after decompression.
const maxImportBytes = 32 << 20

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gzip body: " + err.Error()})
			return
		}
		defer zr.Close()
		body = io.LimitReader(zr, maxImportBytes)
	}

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	var (
		result *ingest.Result
		err    error
	)
	if dryRun {
		result, err = s.alpha.Preview(r.Context(), body)
	} else {
		result, err = s.alpha.Ingest(r.Context(), body)
	}
	if err != nil {
		s.log.Error("alpha import error", "dry_run", dryRun, "error", err)
		status := http.StatusBadRequest
		var serr *workout.StorageError
		if errors.As(err, &serr) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]any{"error": err.Error(), "result": result})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.logs.QueryImportLogs(r.Context(), limit)
	if err != nil {
		s.log.Error("querying import logs", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
