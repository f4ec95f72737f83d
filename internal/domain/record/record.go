// Package record turns dataset rows into feature records.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/internal/domain/normalize"
	"github.com/okian/fsingest/internal/domain/nullpolicy"
	"github.com/shopspring/decimal"
)

// DefaultTimeAxisColumn is the provenance column excluded from features.
const DefaultTimeAxisColumn = "timestamp"

// ISO8601Layout is the layout used for TimeFormatISO8601.
const ISO8601Layout = "2006-01-02T15:04:05Z"

// TimeFormat selects the EventTime rendering.
type TimeFormat int

const (
	// TimeFormatUnix renders fractional seconds since the epoch.
	TimeFormatUnix TimeFormat = iota
	// TimeFormatISO8601 renders a UTC ISO-8601 timestamp with second precision.
	TimeFormatISO8601
)

// ParseTimeFormat maps a config value to a TimeFormat.
func ParseTimeFormat(s string) (TimeFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unix", "epoch":
		return TimeFormatUnix, nil
	case "iso8601", "iso-8601", "rfc3339":
		return TimeFormatISO8601, nil
	default:
		return TimeFormatUnix, fmt.Errorf("%w: %q", ErrUnknownTimeFormat, s)
	}
}

// String implements fmt.Stringer.
func (f TimeFormat) String() string {
	if f == TimeFormatISO8601 {
		return "iso8601"
	}
	return "unix"
}

// FormatTime renders t in the given format.
func FormatTime(t time.Time, f TimeFormat) string {
	if f == TimeFormatISO8601 {
		return t.UTC().Format(ISO8601Layout)
	}
	return decimal.New(t.UnixNano(), -9).String()
}

// Builder assembles feature records. It holds no mutable state and is safe
// for concurrent use.
type Builder struct {
	clock    Clock
	timeAxis string
	format   TimeFormat
	nulls    *nullpolicy.Policy
}

// NewBuilder creates a Builder with defaults: system clock, "timestamp" as
// the time-axis column, unix EventTime and the exact sentinel policy.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		clock:    SystemClock,
		timeAxis: DefaultTimeAxisColumn,
		format:   TimeFormatUnix,
		nulls:    nullpolicy.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// TimeAxisColumn returns the column excluded from features.
func (b *Builder) TimeAxisColumn() string { return b.timeAxis }

// Build converts row into a record holding one feature per column in
// columns order, skipping the time-axis column and missing values, followed
// by exactly one EventTime feature. Columns absent from row count as nil.
// A source column named EventTime and repeated column names are emitted at
// most once, the synthetic EventTime always taking precedence.
func (b *Builder) Build(row model.Row, columns []string) model.FeatureRecord {
	rec := make(model.FeatureRecord, 0, len(columns)+1)
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if !b.emits(col, seen) {
			continue
		}
		raw := row[col]
		if b.nulls.Missing(normalize.Plain(raw)) {
			continue
		}
		rec = append(rec, model.FeatureValue{Name: col, Value: normalize.Normalize(raw)})
	}
	return append(rec, model.FeatureValue{
		Name:  model.EventTimeFeature,
		Value: FormatTime(b.clock.Now(), b.format),
	})
}

// Excluded returns how many columns of row Build leaves out as missing.
func (b *Builder) Excluded(row model.Row, columns []string) int {
	n := 0
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if b.emits(col, seen) && b.nulls.Missing(normalize.Plain(row[col])) {
			n++
		}
	}
	return n
}

func (b *Builder) emits(col string, seen map[string]struct{}) bool {
	if col == b.timeAxis || col == model.EventTimeFeature {
		return false
	}
	if _, dup := seen[col]; dup {
		return false
	}
	seen[col] = struct{}{}
	return true
}
