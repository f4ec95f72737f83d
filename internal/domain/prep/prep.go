// Package prep applies data-wrangling steps to rows before they become
// feature records: dropping ID-like columns and replacing disguised missing
// values with a generic value.
package prep

import (
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/internal/domain/normalize"
)

// Replacements maps column -> exact cell value -> substitute.
type Replacements map[string]map[string]string

// Preparer applies configured drops and replacements. The zero value is a
// no-op.
type Preparer struct {
	drop    map[string]struct{}
	replace Replacements
}

// New creates a Preparer.
func New(opts ...Option) *Preparer {
	p := &Preparer{
		drop:    make(map[string]struct{}),
		replace: make(Replacements),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Columns returns columns without the dropped ones, preserving order.
func (p *Preparer) Columns(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, dropped := p.drop[c]; !dropped {
			out = append(out, c)
		}
	}
	return out
}

// Row returns a new row with drops and replacements applied. The input row
// is not modified.
func (p *Preparer) Row(row model.Row) model.Row {
	out := make(model.Row, len(row))
	for col, v := range row {
		if _, dropped := p.drop[col]; dropped {
			continue
		}
		if subs, ok := p.replace[col]; ok && v != nil {
			if s, ok := subs[normalize.Plain(v)]; ok {
				v = s
			}
		}
		out[col] = v
	}
	return out
}

// Rows applies Row to every row, keeping order.
func (p *Preparer) Rows(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		out[i] = p.Row(r)
	}
	return out
}
