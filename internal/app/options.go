package app

import (
	"github.com/okian/fsingest/internal/domain/record"
	"github.com/okian/fsingest/pkg/logger"
)

// Option applies a configuration option to the BatchIngestor.
type Option func(*BatchIngestor)

// WithBuilder sets the record builder.
func WithBuilder(b *record.Builder) Option {
	return func(s *BatchIngestor) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithWorkerCount sets how many rows are in flight at once. One keeps the
// batch strictly sequential.
func WithWorkerCount(count int) Option {
	return func(s *BatchIngestor) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue used when workers > 1.
func WithQueueSize(size int) Option {
	return func(s *BatchIngestor) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithFailFast stops the batch at the first rejection.
func WithFailFast(v bool) Option {
	return func(s *BatchIngestor) { s.failFast = v }
}

// WithMaxConsecutiveRejections stops the batch after n rejections in a row.
// Zero disables the limit.
func WithMaxConsecutiveRejections(n int) Option {
	return func(s *BatchIngestor) {
		if n >= 0 {
			s.maxConsecutive = n
		}
	}
}

// WithRunID sets the identifier attached to the batch logs.
func WithRunID(id string) Option {
	return func(s *BatchIngestor) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithTracker shares a tracker with other components, e.g. a status server.
func WithTracker(t *Tracker) Option {
	return func(s *BatchIngestor) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithLogger sets a custom logger for the ingestor.
func WithLogger(l logger.Logger) Option {
	return func(s *BatchIngestor) {
		if l != nil {
			s.logger = l
		}
	}
}
