// Package export writes the prepared rows of a batch as a CSV snapshot next to
// the ingestion, stamped with the time the batch was processed.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/okian/fsingest/internal/adapters/storage"
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/internal/domain/normalize"
	"github.com/okian/fsingest/internal/domain/record"
	"github.com/okian/fsingest/pkg/logger"
	"github.com/okian/fsingest/pkg/metrics"
)

// FileName is appended to the configured output path.
const FileName = "processed_features.csv"

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithClock sets the clock used for the EventTime column.
func WithClock(c record.Clock) Option {
	return func(w *Writer) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithHeader controls whether a header line is written. Defaults to true.
func WithHeader(v bool) Option {
	return func(w *Writer) { w.header = v }
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// Writer exports processed rows.
type Writer struct {
	store  *storage.Store
	clock  record.Clock
	header bool
	logger logger.Logger
}

// NewWriter creates a Writer over store.
func NewWriter(store *storage.Store, opts ...Option) *Writer {
	w := &Writer{
		store:  store,
		clock:  record.SystemClock,
		header: true,
		logger: logger.Get().Named("export"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Location returns where Export writes for outputPath. The file name is
// appended as is, so a directory path needs its trailing separator.
func Location(outputPath string) string {
	return outputPath + FileName
}

// Export writes rows with their columns plus a single EventTime column in
// ISO-8601 UTC. A source EventTime column is replaced. It returns the
// location written.
func (w *Writer) Export(ctx context.Context, outputPath string, columns []string, rows []model.Row) (string, error) {
	location := Location(outputPath)
	content, err := w.Encode(columns, rows)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", location, err)
	}
	if err := w.store.Write(ctx, location, content); err != nil {
		metrics.RecordError("export", "write")
		return "", err
	}
	metrics.RecordExportRows(len(rows))
	w.logger.Info(ctx, "processed features exported",
		logger.String("location", location),
		logger.Int("rows", len(rows)),
	)
	return location, nil
}

// Encode renders the CSV body. Missing values are written as empty cells.
func (w *Writer) Encode(columns []string, rows []model.Row) ([]byte, error) {
	cols := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		if c != model.EventTimeFeature {
			cols = append(cols, c)
		}
	}
	stamp := record.FormatTime(w.clock.Now(), record.TimeFormatISO8601)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if w.header {
		if err := cw.Write(append(cols, model.EventTimeFeature)); err != nil {
			return nil, err
		}
	}
	line := make([]string, len(cols)+1)
	for _, row := range rows {
		for i, c := range cols {
			line[i] = cell(row[c])
		}
		line[len(cols)] = stamp
		if err := cw.Write(line); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return normalize.Plain(v)
}
