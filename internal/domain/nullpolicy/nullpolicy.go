// Package nullpolicy decides which cell values count as missing and must be
// left out of a feature record.
package nullpolicy

import "strings"

// Sentinels is the closed set of tokens that denote a missing value.
// The set is matched exactly unless case folding is enabled; note that it is
// asymmetric (NA has no lower-case twin while None/none and NaN/nan do).
var Sentinels = []string{"NaN", "NA", "None", "none", "nan"} //nolint:gochecknoglobals // fixed token set

// Policy matches cell values against the sentinel set.
type Policy struct {
	foldCase bool
	tokens   map[string]struct{}
}

// New creates a Policy over the default sentinel set.
func New(opts ...Option) *Policy {
	p := &Policy{}
	for _, opt := range opts {
		opt(p)
	}
	p.tokens = make(map[string]struct{}, len(Sentinels))
	for _, s := range Sentinels {
		p.tokens[p.key(s)] = struct{}{}
	}
	return p
}

// Missing reports whether the plain string form of a value is a sentinel.
// The empty string is never missing.
func (p *Policy) Missing(s string) bool {
	if s == "" {
		return false
	}
	_, ok := p.tokens[p.key(s)]
	return ok
}

// FoldsCase reports whether comparisons ignore case.
func (p *Policy) FoldsCase() bool { return p.foldCase }

func (p *Policy) key(s string) string {
	if p.foldCase {
		return strings.ToLower(s)
	}
	return s
}
