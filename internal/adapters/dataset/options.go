package dataset

import "github.com/okian/fsingest/pkg/logger"

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithRequireOrdered makes Read fail with ErrUnordered when the given column
// is not ascending.
func WithRequireOrdered(column string) Option {
	return func(r *Reader) { r.orderColumn = column }
}

// WithEmptyAsNil controls whether empty cells decode to nil (the default) or
// to the empty string.
func WithEmptyAsNil(v bool) Option {
	return func(r *Reader) { r.emptyAsNil = v }
}

// WithComma sets the field delimiter.
func WithComma(c rune) Option {
	return func(r *Reader) { r.comma = c }
}

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}
