// Package ledger records every normalization attempt so operators can see
// which files were converted, skipped or failed, and why.
//
// Two Store implementations exist: MemoryStore for single-process use and
// PostgresStore when DATABASE_URL is configured.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvnorm/internal/normalize"
)

// ErrRunNotFound is returned by Store.Get for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Source identifies what triggered a run.
type Source string

const (
	SourceBatch  Source = "batch"
	SourceUpload Source = "upload"
)

// Run is one normalization attempt on one input.
type Run struct {
	ID         uuid.UUID `json:"id"`
	Source     Source    `json:"source"`
	InputName  string    `json:"inputName"`
	OutputName string    `json:"outputName,omitempty"`
	Encoding   string    `json:"encoding,omitempty"`
	Columns    int       `json:"columns"`
	Rows       int       `json:"rows"`
	BytesRead  int64     `json:"bytesRead"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Start returns a new run for inputName with a fresh ID.
func Start(source Source, inputName string) *Run {
	return &Run{
		ID:        uuid.New(),
		Source:    source,
		InputName: inputName,
		StartedAt: time.Now().UTC(),
	}
}

// Finish fills in the outcome from normalization stats and the returned
// error. An empty input is recorded as skipped rather than failed.
func (r *Run) Finish(outputName string, stats normalize.Stats, err error) {
	r.FinishedAt = time.Now().UTC()
	r.Encoding = stats.Encoding
	r.Columns = stats.Columns
	r.Rows = stats.Rows
	r.BytesRead = stats.BytesRead

	switch {
	case err == nil:
		r.Status = StatusSucceeded
		r.OutputName = outputName
	case errors.Is(err, normalize.ErrEmptyFile):
		r.Status = StatusSkipped
		r.Error = err.Error()
	default:
		r.Status = StatusFailed
		r.Error = err.Error()
	}
}

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists runs.
type Store interface {
	// Record inserts or replaces a run.
	Record(ctx context.Context, run Run) error

	// List returns the most recent runs, newest first. limit <= 0 uses
	// DefaultListLimit.
	List(ctx context.Context, limit int) ([]Run, error)

	// Get returns a single run or ErrRunNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Run, error)

	Close()
}
