// Package app drives a batch: every row of a dataset is turned into a feature
// record and put into the feature store, and the outcomes are folded into a
// tally.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fsingest/internal/adapters/featurestore"
	"github.com/okian/fsingest/internal/adapters/mq/queue"
	"github.com/okian/fsingest/internal/adapters/mq/worker"
	"github.com/okian/fsingest/internal/domain/dedupe"
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/internal/domain/record"
	"github.com/okian/fsingest/pkg/logger"
	"github.com/okian/fsingest/pkg/metrics"
)

const defaultQueueSize = 1024

// BatchIngestor puts every row of a batch through one shared client.
type BatchIngestor struct {
	putter  featurestore.Putter
	builder *record.Builder

	workerCount    int
	queueSize      int
	failFast       bool
	maxConsecutive int
	runID          string
	tracker        *Tracker

	logger logger.Logger
}

// New creates a BatchIngestor on putter.
func New(putter featurestore.Putter, opts ...Option) *BatchIngestor {
	s := &BatchIngestor{
		putter:      putter,
		builder:     record.NewBuilder(),
		workerCount: 1,
		queueSize:   defaultQueueSize,
		runID:       uuid.NewString(),
		logger:      logger.Get().Named("ingestor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracker == nil {
		s.tracker = NewTracker(s.runID)
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))
	return s
}

// RunID returns the identifier of the batch.
func (s *BatchIngestor) RunID() string { return s.runID }

// Tracker returns the tracker following the batch.
func (s *BatchIngestor) Tracker() *Tracker { return s.tracker }

// IngestAll builds and puts one record per row. A rejected row is counted and
// the batch moves on unless fail-fast or the consecutive rejection limit
// stops it, in which case the tally so far is returned with ErrAborted. Each
// row is attempted at most once.
func (s *BatchIngestor) IngestAll(ctx context.Context, rows []model.Row, columns []string, featureGroup string) (model.Tally, error) {
	if featureGroup == "" {
		return model.Tally{}, fmt.Errorf("%w: feature group must not be empty", ErrInvalidConfig)
	}
	if s.putter == nil {
		return model.Tally{}, fmt.Errorf("%w: no ingestion client", ErrInvalidConfig)
	}

	start := time.Now()
	s.tracker.SetRows(len(rows))
	s.tracker.SetPhase(PhaseIngesting)
	s.logger.Info(ctx, "batch started",
		logger.String("feature_group", featureGroup),
		logger.Int("rows", len(rows)),
		logger.Int("workers", s.workerCount),
	)

	var (
		tally model.Tally
		err   error
	)
	if s.workerCount > 1 && len(rows) > 1 {
		tally, err = s.ingestParallel(ctx, rows, columns, featureGroup)
	} else {
		metrics.UpdateWorkerCount(1)
		tally, err = s.ingestSequential(ctx, rows, columns, featureGroup)
	}

	finished := time.Now()
	metrics.RecordBatch(finished.Sub(start).Seconds(), finished.Unix())
	fields := []logger.Field{
		logger.Int("accepted", tally.Accepted),
		logger.Int("rejected", len(tally.Rejected)),
		logger.Int("attempted", tally.Total()),
		logger.Duration("took", finished.Sub(start)),
	}
	if err != nil {
		s.tracker.SetPhase(PhaseFailed)
		s.logger.Warn(ctx, "batch stopped", append(fields, logger.Error(err))...)
	} else {
		s.tracker.SetPhase(PhaseDone)
		s.logger.Info(ctx, "batch finished", fields...)
	}
	return tally, err
}

func (s *BatchIngestor) ingestSequential(ctx context.Context, rows []model.Row, columns []string, featureGroup string) (model.Tally, error) {
	var (
		tally model.Tally
		stop  stopper
	)
	stop.failFast, stop.max = s.failFast, s.maxConsecutive

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		outcome := s.ingestRow(ctx, i, row, columns, featureGroup)
		tally = tally.Add(i, outcome)
		if err := stop.observe(outcome); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

func (s *BatchIngestor) ingestParallel(ctx context.Context, rows []model.Row, columns []string, featureGroup string) (model.Tally, error) {
	stopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	results := make(chan worker.Result, s.workerCount)
	guard := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(rows)))

	proc := worker.ProcessorFunc(func(ctx context.Context, j queue.Job) (model.Outcome, bool) {
		if guard.SeenAndRecord(ctx, j.Index) {
			return model.Outcome{}, false
		}
		return s.ingestRow(ctx, j.Index, j.Row, columns, featureGroup), true
	})
	pool, err := worker.NewPool(s.workerCount, q, proc, results)
	if err != nil {
		return model.Tally{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	pool.Start(ctx, stopCtx)
	go func() {
		pool.Wait()
		close(results)
	}()

	go func() {
		defer func() { _ = q.Close() }()
		for i, row := range rows {
			if err := q.Put(stopCtx, queue.Job{Index: i, Row: row}); err != nil {
				return
			}
		}
	}()

	var (
		tally   model.Tally
		stop    stopper
		stopErr error
	)
	stop.failFast, stop.max = s.failFast, s.maxConsecutive
	for r := range results {
		tally = tally.Add(r.Index, r.Outcome)
		if stopErr != nil {
			continue
		}
		if err := stop.observe(r.Outcome); err != nil {
			stopErr = err
			cancel()
		}
	}

	tally = tally.Sorted()
	if stopErr != nil {
		return tally, stopErr
	}
	if err := ctx.Err(); err != nil {
		return tally, err
	}
	return tally, nil
}

func (s *BatchIngestor) ingestRow(ctx context.Context, index int, row model.Row, columns []string, featureGroup string) model.Outcome {
	rec := s.builder.Build(row, columns)
	metrics.RecordRecordBuilt(s.builder.Excluded(row, columns))

	outcome := s.putter.Put(ctx, featureGroup, rec)
	s.tracker.observe(outcome.Accepted)
	if !outcome.Accepted {
		s.logger.Warn(ctx, "row rejected",
			logger.Int("row", index),
			logger.Int("status", outcome.StatusCode),
			logger.String("reason", outcome.Reason),
		)
	}
	return outcome
}

// stopper decides when rejections end the batch early.
type stopper struct {
	failFast    bool
	max         int
	consecutive int
}

func (st *stopper) observe(o model.Outcome) error {
	if o.Accepted {
		st.consecutive = 0
		return nil
	}
	st.consecutive++
	switch {
	case st.failFast:
		return fmt.Errorf("%w: fail-fast on rejection (%s)", ErrAborted, o.Reason)
	case st.max > 0 && st.consecutive >= st.max:
		return fmt.Errorf("%w: %d consecutive rejections", ErrAborted, st.consecutive)
	}
	return nil
}
