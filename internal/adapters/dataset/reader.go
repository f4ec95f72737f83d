// Package dataset loads the source table of a batch from a CSV object.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/okian/fsingest/internal/adapters/storage"
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/pkg/logger"
	"github.com/okian/fsingest/pkg/metrics"
)

// Dataset is a table in file order. Columns holds the header order.
type Dataset struct {
	Columns []string
	Rows    []model.Row
}

// Reader decodes CSV datasets with a header line.
type Reader struct {
	store       *storage.Store
	orderColumn string
	emptyAsNil  bool
	comma       rune
	logger      logger.Logger
}

// NewReader creates a Reader over store.
func NewReader(store *storage.Store, opts ...Option) *Reader {
	r := &Reader{
		store:      store,
		emptyAsNil: true,
		comma:      ',',
		logger:     logger.Get().Named("dataset"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read loads and decodes the dataset at location.
func (r *Reader) Read(ctx context.Context, location string) (*Dataset, error) {
	content, err := r.store.Read(ctx, location)
	if err != nil {
		metrics.RecordError("dataset", "read")
		return nil, err
	}
	ds, err := r.Decode(bytes.NewReader(content))
	if err != nil {
		metrics.RecordError("dataset", "decode")
		return nil, fmt.Errorf("decoding %s: %w", location, err)
	}
	metrics.RecordRowsRead(len(ds.Rows))
	r.logger.Info(ctx, "dataset loaded",
		logger.String("location", location),
		logger.Int("rows", len(ds.Rows)),
		logger.Strings("columns", ds.Columns),
	)
	return ds, nil
}

// Decode parses CSV from src. Rows keep file order and are never re-sorted.
func (r *Reader) Decode(src io.Reader) (*Dataset, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.comma

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(model.Row, len(header))
		for i, col := range header {
			if rec[i] == "" && r.emptyAsNil {
				row[col] = nil
				continue
			}
			row[col] = rec[i]
		}
		ds.Rows = append(ds.Rows, row)
	}

	if r.orderColumn != "" {
		if err := CheckOrdered(ds, r.orderColumn); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// CheckOrdered verifies that column is present and its values never decrease
// in row order. Values are compared as strings.
func CheckOrdered(ds *Dataset, column string) error {
	if !slices.Contains(ds.Columns, column) {
		return fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}
	var prev string
	for i, row := range ds.Rows {
		var cur string
		if v := row[column]; v != nil {
			cur = fmt.Sprint(v)
		}
		if i > 0 && cur < prev {
			return fmt.Errorf("%w: row %d (%q after %q)", ErrUnordered, i, cur, prev)
		}
		prev = cur
	}
	return nil
}
