// Package transform turns staged job postings into the normalized star
// schema. It parses locations, extracts skills, resolves every dimension
// reference and loads the jobs fact table with its skill bridge rows.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/jobflow/internal/store"
)

const (
	// DefaultBatchSize is the number of fact rows per load transaction.
	DefaultBatchSize = 10000
	// DefaultWorkers is the number of concurrent batch loaders.
	DefaultWorkers = 4
)

// Config holds transformer configuration.
type Config struct {
	// Store is the open target database.
	Store *store.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
	// Workers overrides DefaultWorkers when positive.
	Workers int
}

// Options controls a single run.
type Options struct {
	// Rebuild truncates the jobs fact table and its skill bridge before
	// loading, so every staging row is loaded fresh. Dimension rows are
	// kept: surrogate ids stay stable across rebuilds.
	Rebuild bool
}

// RowFailure records one staging row that could not be transformed.
type RowFailure struct {
	RowID  int64
	Reason string
}

// Result summarizes one transform run.
type Result struct {
	RunID    string
	Loaded   int
	Skipped  int
	Failed   []RowFailure
	Duration time.Duration
}

// Transformer drives the staging-to-normalized run.
type Transformer struct {
	store     *store.Store
	logger    *slog.Logger
	batchSize int
	workers   int
}

// New creates a transformer.
func New(cfg Config) (*Transformer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Transformer{
		store:     cfg.Store,
		logger:    logger,
		batchSize: batchSize,
		workers:   workers,
	}, nil
}

// Run executes one transform pass over the full staging table.
//
// The run has two phases. The prepare phase is sequential: it parses and
// resolves every staging row against a shared dimension cache, collecting
// row-scoped failures without stopping. The load phase writes the prepared
// fact rows in batches with bounded concurrency; rows whose source_row_id
// is already present are counted as skipped, which makes reruns over
// unchanged staging data no-ops.
func (t *Transformer) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := t.logger.With("run_id", result.RunID)

	staged, err := t.store.LoadStaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load staging rows: %w", err)
	}
	if len(staged) == 0 {
		logger.Warn("staging table is empty, nothing to transform")
		result.Duration = time.Since(start)
		return result, nil
	}
	logger.Info("transform started", "staging_rows", len(staged), "batch_size", t.batchSize, "workers", t.workers)

	if opts.Rebuild {
		if err := t.store.TruncateFacts(ctx); err != nil {
			return nil, fmt.Errorf("failed to truncate fact tables: %w", err)
		}
		logger.Info("fact tables truncated for rebuild")
	}

	resolver := NewResolver(t.store, logger)
	if err := resolver.Warm(ctx); err != nil {
		return nil, err
	}

	prepared := make([]store.JobWithSkills, 0, len(staged))
	for _, rec := range staged {
		row, err := prepareRow(ctx, rec, resolver, logger)
		if err != nil {
			if errors.Is(err, ErrRowInvalid) {
				logger.Warn("skipping staging row", "row_id", rec.ID, "reason", err.Error())
				result.Failed = append(result.Failed, RowFailure{RowID: rec.ID, Reason: err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to prepare row %d: %w", rec.ID, err)
		}
		prepared = append(prepared, row)
	}

	loaded, skipped, err := t.loadBatches(ctx, logger, prepared)
	if err != nil {
		return nil, err
	}
	result.Loaded = loaded
	result.Skipped = skipped
	result.Duration = time.Since(start)

	logger.Info("transform finished",
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"failed", len(result.Failed),
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// loadBatches writes prepared rows in chunks of batchSize, at most workers
// transactions in flight at once. Batches are independent: each carries its
// own fact rows and bridge rows, and conflict suppression on source_row_id
// keeps concurrent reruns safe.
func (t *Transformer) loadBatches(ctx context.Context, logger *slog.Logger, rows []store.JobWithSkills) (int, int, error) {
	var (
		g, gctx = errgroup.WithContext(ctx)
		results = make([]store.BatchResult, (len(rows)+t.batchSize-1)/t.batchSize)
	)
	g.SetLimit(t.workers)

	for i := 0; i < len(rows); i += t.batchSize {
		batch := rows[i:min(i+t.batchSize, len(rows))]
		idx := i / t.batchSize
		g.Go(func() error {
			res, err := t.store.LoadJobBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("failed to load batch %d: %w", idx, err)
			}
			results[idx] = res
			logger.Debug("batch loaded", "batch", idx, "rows", len(batch), "loaded", res.Loaded, "skipped", res.Skipped)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	var loaded, skipped int
	for _, r := range results {
		loaded += r.Loaded
		skipped += r.Skipped
	}
	return loaded, skipped, nil
}
