package h5build

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/hdf5"
)

func open(t *testing.T, f *File) *hdf5.File {
	t.Helper()
	data, err := f.Bytes()
	require.NoError(t, err)
	h, err := hdf5.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func arange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestNumericDatasets(t *testing.T) {
	f := New()
	root := f.Root()
	root.Dataset("i8", nil, []int8{-1, 2, -3})
	root.Dataset("i16", nil, []int16{-300, 2, 3})
	root.Dataset("i32", nil, []int32{1, -2, 3}, BigEndian())
	root.Dataset("i64", nil, []int64{math.MinInt64, 0, math.MaxInt64})
	root.Dataset("u8", nil, []uint8{1, 2, 255})
	root.Dataset("u16", nil, []uint16{1, 2, 65535}, BigEndian())
	root.Dataset("u32", nil, []uint32{1, 2, 3})
	root.Dataset("u64", nil, []uint64{1, 2, math.MaxUint64})
	root.Dataset("f32", nil, []float32{1.5, float32(math.NaN()), -2})
	root.Dataset("f64", nil, []float64{1.5, math.Inf(1), -666}, BigEndian())
	root.Dataset("scalar", nil, 7)

	h := open(t, f)
	tests := []struct {
		name  string
		dtype string
		want  any
	}{
		{"i8", "int8", []int64{-1, 2, -3}},
		{"i16", "int16", []int64{-300, 2, 3}},
		{"i32", "int32", []int64{1, -2, 3}},
		{"i64", "int64", []int64{math.MinInt64, 0, math.MaxInt64}},
		{"u8", "uint8", []uint64{1, 2, 255}},
		{"u16", "uint16", []uint64{1, 2, 65535}},
		{"u32", "uint32", []uint64{1, 2, 3}},
		{"u64", "uint64", []uint64{1, 2, math.MaxUint64}},
		{"scalar", "int64", []int64{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := h.OpenDataset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.dtype, ds.Dtype())
			got, err := ds.Values()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ds, err := h.OpenDataset("f32")
	require.NoError(t, err)
	f32, err := ds.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32[0])
	assert.True(t, math.IsNaN(float64(f32[1])))
	assert.Equal(t, float32(-2), f32[2])

	ds, err = h.OpenDataset("f64")
	require.NoError(t, err)
	f64, err := ds.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, math.Inf(1), -666}, f64)

	scalar, err := h.OpenDataset("scalar")
	require.NoError(t, err)
	assert.Nil(t, scalar.Shape())
}

func TestStrings(t *testing.T) {
	f := New()
	f.Root().Dataset("fixed", nil, []string{"a", "", "longer one"})
	f.Root().Dataset("vlen", nil, []string{"x", "", "variable length"}, VarLen())
	f.Root().Dataset("vlen_chunked", nil, []string{"p", "q", "r", "s", "t"}, VarLen(), Chunks(2))

	h := open(t, f)
	for name, want := range map[string][]string{
		"fixed":        {"a", "", "longer one"},
		"vlen":         {"x", "", "variable length"},
		"vlen_chunked": {"p", "q", "r", "s", "t"},
	} {
		ds, err := h.OpenDataset(name)
		require.NoError(t, err, name)
		got, err := ds.ReadStrings()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestChunkedFilters(t *testing.T) {
	vals := arange(7 * 9)
	tests := []struct {
		name string
		opts []Option
	}{
		{"plain", nil},
		{"deflate", []Option{Deflate(6)}},
		{"shuffle_deflate", []Option{Shuffle(), Deflate(4)}},
		{"fletcher32", []Option{Fletcher32()}},
		{"lz4", []Option{LZ4()}},
		{"zstd", []Option{Zstd(3)}},
		{"shuffle_zstd_fletcher", []Option{Shuffle(), Zstd(1), Fletcher32()}},
	}
	f := New()
	for _, tt := range tests {
		opts := append([]Option{Chunks(3, 4)}, tt.opts...)
		f.Root().Dataset(tt.name, []uint64{7, 9}, vals, opts...)
	}
	h := open(t, f)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := h.OpenDataset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, "chunked", ds.Layout())
			got, err := ds.ReadFloat64()
			require.NoError(t, err)
			assert.Equal(t, vals, got)

			col, err := ds.ReadIndexedFloat32(1, []uint64{8, 0})
			require.NoError(t, err)
			assert.Equal(t, []float32{8, 0, 17, 9, 26, 18, 35, 27, 44, 36, 53, 45, 62, 54}, col)
		})
	}
}

func TestPagedFixedArray(t *testing.T) {
	// 40x40 chunks of 1x1 need two pages of the fixed array.
	vals := arange(1600)
	f := New()
	f.Root().Dataset("paged", []uint64{40, 40}, vals, Chunks(1, 1))
	f.Root().Dataset("paged_filtered", []uint64{40, 40}, vals, Chunks(1, 1), Deflate(1))
	h := open(t, f)

	for _, name := range []string{"paged", "paged_filtered"} {
		ds, err := h.OpenDataset(name)
		require.NoError(t, err)
		got, err := ds.ReadFloat64()
		require.NoError(t, err)
		assert.Equal(t, vals, got, name)
	}
}

func TestLayouts(t *testing.T) {
	f := New()
	f.Root().Dataset("compact", nil, []int32{1, 2, 3, 4}, Compact())
	f.Root().Dataset("empty", []uint64{0, 3}, []float64{})
	f.Root().Dataset("empty_chunked", []uint64{0, 3}, []float64{}, Chunks(1, 3))
	f.Root().Dataset("3d", []uint64{2, 3, 4}, arange(24), Chunks(1, 2, 3))

	h := open(t, f)
	ds, err := h.OpenDataset("compact")
	require.NoError(t, err)
	assert.Equal(t, "compact", ds.Layout())
	ints, err := ds.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ints)

	for _, name := range []string{"empty", "empty_chunked"} {
		ds, err = h.OpenDataset(name)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 3}, ds.Shape())
		got, err := ds.ReadFloat64()
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	ds, err = h.OpenDataset("3d")
	require.NoError(t, err)
	slab, err := ds.ReadSliceFloat32([]uint64{1, 1, 1}, []uint64{1, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float32{17, 18, 21, 22}, slab)
}

func TestGroupsLinksAttributes(t *testing.T) {
	f := New()
	root := f.Root()
	root.Attr("version", "GCTX1.0").Attr("count", int64(3))
	meta := root.Group("0/META")
	meta.Group("ROW").Dataset("id", nil, []string{"r1", "r2"}).
		Attr("units", "none").
		Attr("notes", []string{"first", "second"}, VarLen()).
		Attr("scale", []float64{0.5, 2})
	meta.Group("COL")
	root.SoftLink("rows", "/0/META/ROW/id")

	h := open(t, f)
	members, err := h.Root().Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "rows"}, members)

	meta2, err := h.OpenGroup("/0/META")
	require.NoError(t, err)
	members, err = meta2.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"COL", "ROW"}, members)

	ds, err := h.OpenDataset("rows")
	require.NoError(t, err)
	ids, err := ds.ReadStrings()
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids)

	version, err := h.Attr("/@version")
	require.NoError(t, err)
	v, err := version.Value()
	require.NoError(t, err)
	assert.Equal(t, "GCTX1.0", v)

	n, err := h.Attr("/@count")
	require.NoError(t, err)
	v, err = n.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	notes, err := h.Attr("/0/META/ROW/id@notes")
	require.NoError(t, err)
	strs, err := notes.ReadStrings()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, strs)

	scale, err := h.Attr("/0/META/ROW/id@scale")
	require.NoError(t, err)
	fl, err := scale.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 2}, fl)
}

func TestImageRegions(t *testing.T) {
	f := New()
	f.Root().Dataset("a/b", nil, []float64{1, 2})
	f.Root().Dataset("c", nil, []string{"x"}, VarLen())
	im, err := f.Build()
	require.NoError(t, err)

	assert.Equal(t, "OHDR / ", im.Describe(im.Root)[:7])
	assert.Equal(t, "superblock [0, 48)", im.Describe(10))
	assert.Contains(t, im.Describe(uint64(len(im.Bytes))), "unallocated")

	var tags []string
	for _, r := range im.Regions() {
		tags = append(tags, r.Tag)
	}
	assert.Equal(t, []string{"superblock", "data /a/b", "OHDR /a/b", "OHDR /a", "GCOL /c", "data /c", "OHDR /c", "OHDR /"}, tags)
	assert.Equal(t, uint64(len(im.Bytes)), im.Regions()[len(tags)-1].End())
}

func TestInvalid(t *testing.T) {
	tests := map[string]func(f *File){
		"duplicate": func(f *File) {
			f.Root().Dataset("x", nil, []int32{1})
			f.Root().Dataset("x", nil, []int32{2})
		},
		"dataset as group": func(f *File) {
			f.Root().Dataset("x", nil, []int32{1})
			f.Root().Dataset("x/y", nil, []int32{2})
		},
		"shape mismatch":      func(f *File) { f.Root().Dataset("x", []uint64{2, 2}, []int32{1}) },
		"unsupported type":    func(f *File) { f.Root().Dataset("x", nil, []bool{true}) },
		"filters unchunked":   func(f *File) { f.Root().Dataset("x", nil, []int32{1}, Deflate(1)) },
		"chunk rank":          func(f *File) { f.Root().Dataset("x", nil, []int32{1}, Chunks(1, 1)) },
		"scalar with shape":   func(f *File) { f.Root().Dataset("x", []uint64{1}, int32(1)) },
		"compact and chunked": func(f *File) { f.Root().Dataset("x", nil, []int32{1}, Chunks(1), Compact()) },
	}
	for name, build := range tests {
		t.Run(name, func(t *testing.T) {
			f := New()
			build(f)
			_, err := f.Bytes()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
