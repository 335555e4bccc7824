package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/csvnorm/internal/ledger"
	"github.com/JonMunkholm/csvnorm/internal/normalize"
)

func finishedRun(source ledger.Source, rows int, err error) ledger.Run {
	run := ledger.Start(source, "data.csv")
	run.Finish("data_normalized.csv", normalize.Stats{Rows: rows, BytesRead: 100}, err)
	return *run
}

func TestInstrumentStore(t *testing.T) {
	m := New()
	store := m.InstrumentStore(ledger.NewMemoryStore(0))
	ctx := context.Background()

	runs := []ledger.Run{
		finishedRun(ledger.SourceBatch, 10, nil),
		finishedRun(ledger.SourceBatch, 5, nil),
		finishedRun(ledger.SourceBatch, 0, normalize.ErrEmptyFile),
		finishedRun(ledger.SourceUpload, 0, errors.New("boom")),
	}
	for _, run := range runs {
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"batch succeeded", testutil.ToFloat64(m.runs.WithLabelValues("batch", "succeeded")), 2},
		{"batch skipped", testutil.ToFloat64(m.runs.WithLabelValues("batch", "skipped")), 1},
		{"upload failed", testutil.ToFloat64(m.runs.WithLabelValues("upload", "failed")), 1},
		{"batch rows", testutil.ToFloat64(m.rows.WithLabelValues("batch")), 15},
		{"batch bytes", testutil.ToFloat64(m.bytes.WithLabelValues("batch")), 200},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	// The wrapped store still serves reads.
	list, err := store.List(ctx, 0)
	if err != nil || len(list) != len(runs) {
		t.Errorf("List() = %d runs, err %v; want %d", len(list), err, len(runs))
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe(finishedRun(ledger.SourceUpload, 3, nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`csvnorm_runs_total{source="upload",status="succeeded"} 1`,
		`csvnorm_rows_total{source="upload"} 3`,
		"csvnorm_run_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
