package prep

// Option applies a configuration option to the Preparer.
type Option func(*Preparer)

// WithDropColumns removes the named columns from every row.
func WithDropColumns(cols ...string) Option {
	return func(p *Preparer) {
		for _, c := range cols {
			if c != "" {
				p.drop[c] = struct{}{}
			}
		}
	}
}

// WithReplacements substitutes exact cell values per column.
func WithReplacements(r Replacements) Option {
	return func(p *Preparer) {
		for col, subs := range r {
			if len(subs) == 0 {
				continue
			}
			m := p.replace[col]
			if m == nil {
				m = make(map[string]string, len(subs))
				p.replace[col] = m
			}
			for from, to := range subs {
				m[from] = to
			}
		}
	}
}
