package simplex

import "log/slog"

// Options tune the numeric behavior of a Tableau. The zero value compares
// exactly against zero and sets no pivot limit.
type Options struct {
	// Tolerance is the slack used when comparing values against zero.
	Tolerance float64
	// MaxIterations bounds the number of pivots of a single Simplex call.
	// Zero means unlimited.
	MaxIterations int
	// Logger receives pivot and phase events at debug level.
	Logger *slog.Logger
}

// Option configures a Tableau.
type Option func(*Options)

// WithTolerance sets the tolerance used for every comparison against zero.
func WithTolerance(tol float64) Option {
	return func(o *Options) {
		if tol > 0 {
			o.Tolerance = tol
		}
	}
}

// WithMaxIterations sets the pivot budget of each Simplex call.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// NewOptions applies opts on top of the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{Logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
