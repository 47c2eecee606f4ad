package urlhandle

import "go.uber.org/zap"

// Observer is notified after every handle operation with the operation
// name and its outcome (nil on success). It is how metrics are attached
// without the handle knowing about them.
type Observer interface {
	Observe(op string, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(op string, err error)

// Observe implements Observer.
func (f ObserverFunc) Observe(op string, err error) { f(op, err) }

// Option configures a Handle at construction.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	location LocationProvider
	observer Observer
}

// WithLogger sets the logger used for diagnostics. Failures are logged at
// Warn, mutations at Debug. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLocation sets the provider consulted when a handle is constructed
// without a URL.
func WithLocation(p LocationProvider) Option {
	return func(o *options) { o.location = p }
}

// WithObserver attaches an Observer to the handle.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
