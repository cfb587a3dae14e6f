package listgo

import (
	"github.com/hupe1980/listgo/blobstore"
	"github.com/hupe1980/listgo/snapshot"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	viewCacheSize    int
	stateStore       blobstore.Store
	snapshotOptions  []func(*snapshot.Options)
}

// Option configures ListGo constructor behavior.
type Option func(*options)

func applyOptions(optFns []Option) options {
	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		viewCacheSize:    8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// WithLogger sets the structured logger for operation tracing.
// If nil is passed, logging stays disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &listgo.BasicMetricsCollector{}
//	lg, _ := listgo.New(ds, listgo.WithMetricsCollector(metrics))
//	...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithViewCacheSize bounds how many distinct search terms keep a memoized
// filtered+ordered view. Each entry costs one item slice; the default of 8
// covers a typing user comfortably.
func WithViewCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.viewCacheSize = n
		}
	}
}

// WithStateStore enables best-effort persistence of order and selection on
// the given blobstore. Snapshot format details can be adjusted via optFns.
//
// Example:
//
//	store, _ := blobstore.NewLocalStore("./data")
//	lg, _ := listgo.New(ds, listgo.WithStateStore(store, func(o *snapshot.Options) {
//	    o.Compressor = snapshot.LZ4{}
//	}))
func WithStateStore(store blobstore.Store, optFns ...func(*snapshot.Options)) Option {
	return func(o *options) {
		o.stateStore = store
		o.snapshotOptions = optFns
	}
}
