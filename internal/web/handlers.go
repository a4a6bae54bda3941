package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/axsol/varconfig/internal/csvio"
	"github.com/axsol/varconfig/internal/export"
	"github.com/axsol/varconfig/internal/logging"
	"github.com/axsol/varconfig/internal/pipeline"
	"github.com/axsol/varconfig/internal/store"
)

// processResponse is the JSON body returned by /api/process.
type processResponse struct {
	RunID        string                 `json:"runId,omitempty"`
	FileName     string                 `json:"fileName"`
	Columns      []string               `json:"columns"`
	Rows         []pipeline.Row         `json:"rows"`
	Records      []map[string]any       `json:"records"`
	HandlerCount int                    `json:"handlerCount"`
	Spans        []pipeline.HandlerSpan `json:"spans"`
	Summary      string                 `json:"summary"`
}

// handleProcess accepts a variables CSV (multipart field "file" or raw
// body) and returns the enriched rows, typed records, and handler
// summary. With ?format=csv the processed CSV is returned instead of
// JSON.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	body, fileName, err := uploadBody(r, s.cfg.Process.MaxFileSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	header, rows, err := csvio.Read(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid csv: %v", err))
		return
	}
	if len(rows) == 0 {
		writeError(w, r, http.StatusBadRequest, "csv contains no data rows")
		return
	}

	result, err := pipeline.Process(header, rows)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	runID, err := s.runs.RecordRun(r.Context(), fileName, result)
	if err != nil {
		// History is best-effort; the processing result is still valid.
		logger.Error("recording run failed", "file", fileName, "error", err)
	}

	logger.Info("processed variables",
		"file", fileName,
		"variables", len(result.Rows),
		"handlers", result.HandlerCount,
		"run_id", runID,
	)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.ProcessedFileName+`"`)
		if err := csvio.Write(w, result.Columns, result.Rows, ';'); err != nil {
			logger.Error("writing csv response failed", "error", err)
		}
		return
	}

	writeJSON(w, processResponse{
		RunID:        runID,
		FileName:     fileName,
		Columns:      result.Columns,
		Rows:         result.Rows,
		Records:      result.Records,
		HandlerCount: result.HandlerCount,
		Spans:        result.Spans,
		Summary:      export.FormatSummary(result.Spans),
	})
}

// handleDetect classifies an uploaded CSV by its header shape.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	body, fileName, err := uploadBody(r, s.cfg.Process.MaxFileSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	header, _, err := csvio.Read(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid csv: %v", err))
		return
	}

	writeJSON(w, map[string]any{
		"fileName": fileName,
		"kind":     csvio.DetectKind(header),
		"columns":  header,
	})
}

// handleListRuns returns recent processing runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "listing runs failed")
		logging.FromContext(r.Context()).Error("listing runs failed", "error", err)
		return
	}
	writeJSON(w, map[string]any{"runs": runs})
}

// handleGetRun returns one run including its per-variable records.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "loading run failed")
		logging.FromContext(r.Context()).Error("loading run failed", "error", err)
		return
	}
	writeJSON(w, run)
}

// handleRunSummary returns the handler summary of a stored run as text.
func (s *Server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "loading run failed")
		logging.FromContext(r.Context()).Error("loading run failed", "error", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, export.FormatSummary(run.Spans))
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// uploadBody extracts the CSV payload from a request: the multipart
// field "file" when present, the raw body otherwise. The reader is
// capped at maxSize bytes.
func uploadBody(r *http.Request, maxSize int64) (io.ReadCloser, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return nil, "", fmt.Errorf("parsing upload: %w", err)
		}
		file, fh, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing upload field %q", "file")
		}
		return file, fh.Filename, nil
	}
	return http.MaxBytesReader(nil, r.Body, maxSize), "upload.csv", nil
}
