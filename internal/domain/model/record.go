// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"strconv"
)

// EventTimeFeature names the synthetic feature appended to every record.
const EventTimeFeature = "EventTime"

// Row is one dataset row keyed by column name. Values are raw cells:
// strings, numbers, bools or nil.
type Row map[string]any

// FeatureValue is a single feature as transmitted to the store.
// Values are always strings.
type FeatureValue struct {
	Name  string // feature name, i.e. the source column
	Value string // canonical string value
}

// FeatureRecord is an ordered list of features terminated by EventTime.
type FeatureRecord []FeatureValue

// Names returns the feature names in record order.
func (r FeatureRecord) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Get returns the value of the named feature.
func (r FeatureRecord) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Outcome is the result of one ingestion attempt.
type Outcome struct {
	Accepted   bool
	StatusCode int    // HTTP status when a response was received, 0 otherwise
	Reason     string // empty when accepted
}

// Accept returns an accepted outcome.
func Accept() Outcome {
	return Outcome{Accepted: true, StatusCode: 200}
}

// RejectStatus returns a rejection caused by a non-success response status.
func RejectStatus(code int, detail string) Outcome {
	reason := "status " + strconv.Itoa(code)
	if detail != "" {
		reason += ": " + detail
	}
	return Outcome{StatusCode: code, Reason: reason}
}

// RejectTransport returns a rejection caused by a transport-level failure.
func RejectTransport(err error) Outcome {
	return Outcome{Reason: "transport: " + err.Error()}
}

// Rejection attributes a rejected outcome to its row.
type Rejection struct {
	RowIndex int
	Reason   string
}

// Tally accumulates per-row outcomes of a batch.
type Tally struct {
	Accepted int
	Rejected []Rejection
}

// Add folds one outcome into the tally and returns the new tally.
// The receiver shares storage with the result and must not be reused.
func (t Tally) Add(rowIndex int, o Outcome) Tally {
	if o.Accepted {
		t.Accepted++
		return t
	}
	t.Rejected = append(t.Rejected, Rejection{RowIndex: rowIndex, Reason: o.Reason})
	return t
}

// Total returns the number of outcomes folded into the tally.
func (t Tally) Total() int {
	return t.Accepted + len(t.Rejected)
}

// Sorted returns a copy with rejections ordered by row index.
func (t Tally) Sorted() Tally {
	rejected := make([]Rejection, len(t.Rejected))
	copy(rejected, t.Rejected)
	sort.SliceStable(rejected, func(i, j int) bool { return rejected[i].RowIndex < rejected[j].RowIndex })
	t.Rejected = rejected
	return t
}
