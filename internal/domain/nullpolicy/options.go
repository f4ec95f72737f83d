package nullpolicy

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithCaseFold makes the policy compare lower-cased values, so that variants
// such as "NONE", "na" or "NAN" are treated as missing as well.
func WithCaseFold(enabled bool) Option {
	return func(p *Policy) {
		p.foldCase = enabled
	}
}
