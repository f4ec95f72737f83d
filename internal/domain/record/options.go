package record

import "github.com/okian/fsingest/internal/domain/nullpolicy"

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithClock sets the clock used for EventTime.
func WithClock(c Clock) Option {
	return func(b *Builder) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithTimeAxisColumn sets the column that is never emitted as a feature.
func WithTimeAxisColumn(name string) Option {
	return func(b *Builder) {
		if name != "" {
			b.timeAxis = name
		}
	}
}

// WithTimeFormat sets how EventTime is rendered.
func WithTimeFormat(f TimeFormat) Option {
	return func(b *Builder) {
		b.format = f
	}
}

// WithNullPolicy sets the policy deciding which values are missing.
func WithNullPolicy(p *nullpolicy.Policy) Option {
	return func(b *Builder) {
		if p != nil {
			b.nulls = p
		}
	}
}
