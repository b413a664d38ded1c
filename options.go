package tslog

import "log/slog"

type options struct {
	logger      *slog.Logger
	syncOnClose bool
}

// Option configures a Log at construction time.
type Option func(*options)

// WithLogger configures structured debug logging for stream declarations and
// close. Pass nil to disable logging (the default).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	log, _ := tslog.Open("run.tslog", tslog.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		o.logger = logger
	}
}

// WithSyncOnClose makes Close flush the sink to stable storage before
// closing it. The default matches the write path: no syncing, durability is
// the caller's concern via Sync.
func WithSyncOnClose() Option {
	return func(o *options) {
		o.syncOnClose = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
