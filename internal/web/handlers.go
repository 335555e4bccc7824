package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/csvnorm/internal/ledger"
	"github.com/JonMunkholm/csvnorm/internal/logging"
	"github.com/JonMunkholm/csvnorm/internal/normalize"
)

// multipartMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const multipartMemory = 32 << 20

var (
	errNoFile       = errors.New("no file provided")
	errRateLimited  = errors.New("rate limit exceeded")
	errInvalidRunID = errors.New("invalid run id")
	errInvalidLimit = errors.New("invalid limit")
)

// handleHealth reports liveness and normalization slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":         "ok",
		"normalizations": s.limiter.Status(),
	})
}

// handleNormalize normalizes an uploaded CSV and streams the result back
// as an attachment named <stem>_normalized.csv.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("file too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("invalid form: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	inputName := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(inputName), ".csv") {
		respondError(w, r, fmt.Errorf("not a csv file: %q", inputName), http.StatusBadRequest)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		status := http.StatusServiceUnavailable
		if !errors.Is(err, ErrTooManyNormalizations) {
			status = http.StatusRequestTimeout
		}
		respondError(w, r, err, status)
		return
	}
	defer s.limiter.Release()

	sample := make([]byte, s.normalizer.Options().SampleSize)
	n, err := io.ReadFull(file, sample)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}
	sample = sample[:n]
	encoding := s.normalizer.DetectBytes(sample)

	run := ledger.Start(ledger.SourceUpload, inputName)
	outputName := normalize.OutputName(inputName, normalize.CompressionNone)
	logger := logging.WithFields(r.Context(), "run_id", run.ID, "file", inputName)
	logger.Info("normalizing upload", "encoding", encoding, "size", header.Size)

	w.Header().Set("X-Run-ID", run.ID.String())
	out := &csvAttachment{w: w, filename: outputName}

	stats, err := s.normalizer.NormalizeStream(r.Context(), io.MultiReader(bytes.NewReader(sample), file), out, encoding)
	run.Finish(outputName, stats, err)
	if recErr := s.store.Record(context.WithoutCancel(r.Context()), *run); recErr != nil {
		logger.Warn("failed to record run", "error", recErr)
	}

	if err != nil {
		if out.started {
			// Headers are gone; the client sees a truncated body.
			logger.Error("normalization failed mid-stream", "error", err, "rows", stats.Rows)
			return
		}
		respondError(w, r, err, normalizeErrorStatus(err))
		return
	}

	logger.Info("normalized upload", "rows", stats.Rows, "columns", stats.Columns)
}

// normalizeErrorStatus picks the HTTP status for a NormalizeStream error.
func normalizeErrorStatus(err error) int {
	switch {
	case errors.Is(err, normalize.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// csvAttachment sends the CSV response headers on the first write, so an
// error before any output can still be reported as JSON.
type csvAttachment struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (a *csvAttachment) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		h := a.w.Header()
		h.Set("Content-Type", "text/csv; charset=utf-8")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.filename}))
		a.w.WriteHeader(http.StatusOK)
	}
	return a.w.Write(p)
}

// handleListRuns returns recent runs, newest first. ?limit= caps the count.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := ledger.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, fmt.Errorf("%w: %q", errInvalidLimit, v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []ledger.Run{}
	}

	writeJSON(w, r, map[string]any{"runs": runs})
}

// handleGetRun returns a single run by ID.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, errInvalidRunID, http.StatusBadRequest)
		return
	}

	run, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ledger.ErrRunNotFound) {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, run)
}
