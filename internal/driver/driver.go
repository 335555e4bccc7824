// Package driver runs the normalizer over every CSV file in a directory.
//
// Files are discovered by a case-insensitive ".csv" suffix and processed in
// name order. An empty file is logged and skipped; any other error stops the
// run and is returned. Every attempt is recorded in the run ledger.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvnorm/internal/ledger"
	"github.com/JonMunkholm/csvnorm/internal/normalize"
)

// Summary counts the outcome of one directory run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Rows      int
	Duration  time.Duration
}

// Driver walks an input directory and normalizes each candidate file.
type Driver struct {
	normalizer *normalize.Normalizer
	store      ledger.Store
	logger     *slog.Logger
	workers    int
}

// New creates a Driver. store may be nil to disable run recording; a nil
// logger uses slog.Default(). workers <= 0 means one file at a time.
func New(n *normalize.Normalizer, store ledger.Store, logger *slog.Logger, workers int) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Driver{
		normalizer: n,
		store:      store,
		logger:     logger,
		workers:    workers,
	}
}

// Discover returns the paths of all regular files in dir whose extension
// is ".csv" in any letter case, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)
	return files, nil
}

// Run normalizes every CSV file in inputDir into outputDir, creating
// outputDir if needed.
func (d *Driver) Run(ctx context.Context, inputDir, outputDir string) (Summary, error) {
	start := time.Now()
	var summary Summary

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	files, err := Discover(inputDir)
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		d.logger.Warn("no csv files found", "dir", inputDir)
		return summary, nil
	}

	d.logger.Info("starting normalization run",
		"input_dir", inputDir,
		"output_dir", outputDir,
		"files", len(files),
		"workers", d.workers,
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, path := range files {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// A sibling may have failed while this file waited for a slot.
			if gctx.Err() != nil {
				return nil
			}

			res, err := d.processFile(gctx, path, outputDir)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.Processed++
				summary.Rows += res.Rows
				return nil
			case errors.Is(err, normalize.ErrEmptyFile):
				summary.Skipped++
				return nil
			default:
				summary.Failed++
				return err
			}
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	summary.Duration = time.Since(start)

	d.logger.Info("normalization run finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"rows", summary.Rows,
		"duration", summary.Duration,
	)

	return summary, err
}

// processFile normalizes one file and records the attempt.
func (d *Driver) processFile(ctx context.Context, path, outputDir string) (*normalize.Result, error) {
	run := ledger.Start(ledger.SourceBatch, filepath.Base(path))

	res, err := d.normalizer.NormalizeFile(ctx, path, outputDir)

	var stats normalize.Stats
	outputName := ""
	if res != nil {
		stats = res.Stats
		outputName = filepath.Base(res.OutputPath)
	}
	run.Finish(outputName, stats, err)
	d.record(ctx, run)

	return res, err
}

// record stores a run. Ledger failures are logged but never fail the file.
func (d *Driver) record(ctx context.Context, run *ledger.Run) {
	if d.store == nil {
		return
	}
	// The run outcome must be stored even when the run was cancelled.
	if err := d.store.Record(context.WithoutCancel(ctx), *run); err != nil {
		d.logger.Warn("failed to record run",
			"run_id", run.ID,
			"file", run.InputName,
			"error", err,
		)
	}
}
