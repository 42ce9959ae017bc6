package hdf5

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	f := openFixture(t, "compressed.h5", WithMetrics(m), WithChunkCacheSize(50))

	ds, err := f.OpenDataset("/gzip")
	require.NoError(t, err)
	_, err = ds.ReadFloat64()
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesOpened))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.ChunksDecoded))
	assert.Equal(t, 100.0*10*10*8, testutil.ToFloat64(m.DecodedBytes))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.ChunkCache.WithLabelValues("miss")))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.ChunkCache.WithLabelValues("evict")))
	assert.Greater(t, testutil.ToFloat64(m.BytesRead), 0.0)

	// The first ten chunks were evicted; the last row of chunks is cached.
	_, err = ds.ReadSliceFloat32([]uint64{90, 0}, []uint64{10, 100})
	require.NoError(t, err)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ChunkCache.WithLabelValues("hit")))
}

func TestMetricsWithoutCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := openFixture(t, "chunked.h5", WithRegisterer(reg), WithChunkCacheSize(0))
	ds, err := f.OpenDataset("/chunked")
	require.NoError(t, err)
	_, err = ds.ReadFloat64()
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	assert.Contains(t, names, "hdf5_bytes_read_total")
	assert.NotContains(t, names, "hdf5_chunk_cache_events_total")
}

func TestPaths(t *testing.T) {
	obj, name, err := ParseAttrPath("/0/DATA/0/matrix@units")
	require.NoError(t, err)
	assert.Equal(t, "/0/DATA/0/matrix", obj)
	assert.Equal(t, "units", name)
	assert.Equal(t, "/0/DATA/0/matrix@units", JoinAttrPath(obj, name))

	obj, _, err = ParseAttrPath("@version")
	require.NoError(t, err)
	assert.Equal(t, "/", obj)
	assert.Equal(t, "/@version", JoinAttrPath("/", "version"))

	_, _, err = ParseAttrPath("/data@")
	assert.ErrorIs(t, err, ErrInvalidPath)

	assert.Equal(t, []string{"a", "b"}, SplitPath("//a/b/"))
	assert.Equal(t, "/a/b", CleanPath("a//b/"))
	assert.Equal(t, "/", CleanPath(""))
}
