package hdf5

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for file reads.
type Metrics struct {
	FilesOpened   prometheus.Counter
	BytesRead     prometheus.Counter
	ChunksDecoded prometheus.Counter
	DecodedBytes  prometheus.Counter
	ChunkCache    *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	filesOpened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdf5_files_opened_total",
		Help: "Total HDF5 files opened",
	})

	bytesRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdf5_bytes_read_total",
		Help: "Total raw dataset bytes read from files",
	})

	chunksDecoded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdf5_chunks_decoded_total",
		Help: "Total chunks passed through a filter pipeline",
	})

	decodedBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hdf5_decoded_bytes_total",
		Help: "Total bytes produced by filter pipelines",
	})

	chunkCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hdf5_chunk_cache_events_total",
		Help: "Chunk cache lookups and evictions",
	}, []string{"event"})

	reg.MustRegister(filesOpened, bytesRead, chunksDecoded, decodedBytes, chunkCache)

	return &Metrics{
		FilesOpened:   filesOpened,
		BytesRead:     bytesRead,
		ChunksDecoded: chunksDecoded,
		DecodedBytes:  decodedBytes,
		ChunkCache:    chunkCache,
	}
}

// observer adapts Metrics to the storage layer's event hooks.
type observer struct {
	m *Metrics
}

func (o observer) BytesRead(n int) { o.m.BytesRead.Add(float64(n)) }

func (o observer) ChunkDecoded(_, decoded int) {
	o.m.ChunksDecoded.Inc()
	o.m.DecodedBytes.Add(float64(decoded))
}

func (o observer) CacheLookup(hit bool) {
	if hit {
		o.m.ChunkCache.WithLabelValues("hit").Inc()
		return
	}
	o.m.ChunkCache.WithLabelValues("miss").Inc()
}

func (o observer) evicted() { o.m.ChunkCache.WithLabelValues("evict").Inc() }
