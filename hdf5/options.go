package hdf5

import (
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultChunkCacheSize is the number of decoded chunks kept per file.
const DefaultChunkCacheSize = 256

// Option configures how a file is opened.
type Option func(*options)

type options struct {
	logger    log.Logger
	cacheSize int
	metrics   *Metrics
	name      string
}

func defaultOptions() *options {
	return &options{
		logger:    log.NewNopLogger(),
		cacheSize: DefaultChunkCacheSize,
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithChunkCacheSize sets how many decoded chunks are cached. Zero
// disables the cache.
func WithChunkCacheSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.cacheSize = n
		}
	}
}

// WithMetrics records read activity in m. One Metrics value can be shared
// by any number of files.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRegisterer creates metrics registered with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.metrics = NewMetrics(reg) }
}

// WithName sets the name reported by File.Name for files opened with
// OpenReader.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}
