package gctx

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/hdf5"
	"github.com/robert-malhotra/go-gctx/internal/h5build"
)

func metaGroup(t *testing.T, fields ...field) *hdf5.Group {
	t.Helper()
	f := h5build.New()
	g := f.Root().Group("META")
	for _, fd := range fields {
		g.Dataset(fd.name, nil, fd.values, h5build.VarLen())
	}
	data, err := f.Bytes()
	require.NoError(t, err)
	h, err := hdf5.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	grp, err := h.OpenGroup("/META")
	require.NoError(t, err)
	return grp
}

func TestReadMetadataInference(t *testing.T) {
	g := metaGroup(t,
		field{"id", []int64{10, 20, 30}},
		field{"count", []int32{1, 2, 3}},
		field{"ratio", []float32{0.5, 1, 2.25}},
		field{"digits", []string{"1", "2.5", "1e3"}},
		field{"mixed", []string{"1", "two", "3"}},
		field{"special", []string{"nan", "inf", "-inf"}},
		field{"unsigned", []uint16{7, 8, 9}},
	)
	tbl, err := ReadMetadata(g, Rows, false)
	require.NoError(t, err)

	// Numeric ids stay strings.
	assert.Equal(t, []string{"10", "20", "30"}, tbl.IDs)
	assert.Equal(t, []string{"count", "digits", "mixed", "ratio", "special", "unsigned"}, tbl.FieldNames())

	tests := []struct {
		name    string
		kind    FieldKind
		numbers []float64
		texts   []string
	}{
		{"count", Numeric, []float64{1, 2, 3}, nil},
		{"ratio", Numeric, []float64{0.5, 1, 2.25}, nil},
		{"digits", Numeric, []float64{1, 2.5, 1000}, nil},
		{"mixed", Text, nil, []string{"1", "two", "3"}},
		{"unsigned", Numeric, []float64{7, 8, 9}, nil},
	}
	for _, tt := range tests {
		f := tbl.Field(tt.name)
		require.NotNil(t, f, tt.name)
		assert.Equal(t, tt.kind, f.Kind, tt.name)
		if tt.kind == Numeric {
			assert.Equal(t, tt.numbers, f.Numbers, tt.name)
			continue
		}
		assert.Equal(t, tt.texts, f.Texts, tt.name)
	}

	special := tbl.Field("special")
	require.Equal(t, Numeric, special.Kind)
	assert.True(t, math.IsNaN(special.Numbers[0]))
	assert.True(t, math.IsInf(special.Numbers[1], 1))
	assert.True(t, math.IsInf(special.Numbers[2], -1))
}

func TestReadMetadataSentinels(t *testing.T) {
	fields := []field{
		{"id", []string{"a", "b", "c"}},
		{"int", []int64{1, -666, 3}},
		{"float", []float64{-666, 0.5, 2}},
		{"text", []string{"x", "-666", "z"}},
		{"numeric_text", []string{"4", "-666", "-666.0"}},
		{"tag", []string{"x", "-666.0", "-666"}},
	}

	t.Run("convert", func(t *testing.T) {
		tbl, err := ReadMetadata(metaGroup(t, fields...), Cols, true)
		require.NoError(t, err)
		assert.Equal(t, "cid", tbl.IndexName)
		assert.Equal(t, "chd", tbl.FieldsName)

		for _, name := range []string{"int", "float", "numeric_text"} {
			f := tbl.Field(name)
			require.Equal(t, Numeric, f.Kind, name)
			for i := 0; i < f.Len(); i++ {
				assert.NotEqual(t, float64(Sentinel), f.Numbers[i], name)
			}
		}
		assert.True(t, tbl.Field("int").Missing(1))
		assert.True(t, tbl.Field("float").Missing(0))
		assert.Equal(t, 4.0, tbl.Field("numeric_text").Numbers[0])
		assert.True(t, tbl.Field("numeric_text").Missing(2))

		text := tbl.Field("text")
		require.Equal(t, Text, text.Kind)
		assert.Equal(t, []bool{true, false, true}, text.Valid)

		// Strings only match the sentinel exactly.
		tag := tbl.Field("tag")
		require.Equal(t, Text, tag.Kind)
		assert.Equal(t, "-666.0", tag.Texts[1])
		assert.Equal(t, []bool{true, true, false}, tag.Valid)
	})

	t.Run("keep", func(t *testing.T) {
		tbl, err := ReadMetadata(metaGroup(t, fields...), Cols, false)
		require.NoError(t, err)
		want := map[string][]string{
			"int":          {"1", "-666", "3"},
			"float":        {"-666", "0.5", "2.0"},
			"text":         {"x", "-666", "z"},
			"numeric_text": {"4", "-666", "-666"},
			"tag":          {"x", "-666.0", "-666"},
		}
		for name, texts := range want {
			f := tbl.Field(name)
			require.Equal(t, Text, f.Kind, name)
			assert.Equal(t, texts, f.Texts, name)
			assert.Equal(t, []bool{true, true, true}, f.Valid, name)
		}
	})
}

func TestReadMetadataErrors(t *testing.T) {
	_, err := ReadMetadata(metaGroup(t, field{"name", []string{"a"}}), Rows, false)
	assert.ErrorIs(t, err, hdf5.ErrNotFound)

	_, err = ReadMetadata(metaGroup(t,
		field{"id", []string{"a", "b"}},
		field{"short", []int64{1}},
	), Rows, false)
	var ierr *IntegrityError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "short has 1 values for 2 ids")
}

func TestNormalizeSentinel(t *testing.T) {
	tests := []struct {
		in          string
		convert     bool
		want        string
		wantMissing bool
	}{
		{"-666", true, "", true},
		{"-666", false, "-666", false},
		{"-666.0", true, "-666.0", false},
		{"-666.0", false, "-666.0", false},
		{"-6660", true, "-6660", false},
		{"abc", true, "abc", false},
		{"", false, "", false},
	}
	for _, tt := range tests {
		got, missing := NormalizeSentinel(tt.in, tt.convert)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantMissing, missing, tt.in)
	}
}

func TestMetadataTableTake(t *testing.T) {
	tbl := &MetadataTable{
		IDs:       []string{"a", "b", "c"},
		IndexName: "rid",
		Fields: []*Field{
			NewNumericField("n", []float64{1, 2, 3}),
			NewTextField("s", []string{"x", "y", "z"}),
		},
	}
	sub := tbl.Take([]int{2, 0, 2})
	assert.Equal(t, []string{"c", "a", "c"}, sub.IDs)
	assert.Equal(t, []float64{3, 1, 3}, sub.Field("n").Numbers)
	assert.Equal(t, []string{"z", "x", "z"}, sub.Field("s").Texts)

	sub.Field("n").Numbers[0] = 99
	assert.Equal(t, 3.0, tbl.Field("n").Numbers[2])
	assert.Nil(t, tbl.Field("absent"))
}
