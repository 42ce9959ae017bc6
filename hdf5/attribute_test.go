package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes(t *testing.T) {
	f := openFixture(t, "attributes.h5")
	ds, err := f.OpenDataset("/data")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"int_attr", "float_attr", "string_attr"}, ds.Attrs())

	tests := []struct {
		name string
		want any
	}{
		{"int_attr", int64(42)},
		{"float_attr", 3.14},
		{"string_attr", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ds.Attr(tt.name)
			require.NotNil(t, a)
			assert.True(t, a.IsScalar())
			v, err := a.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
	assert.Nil(t, ds.Attr("absent"))

	root, err := f.Attr("/@file_attr")
	require.NoError(t, err)
	strs, err := root.ReadStrings()
	require.NoError(t, err)
	assert.Equal(t, []string{"file level attribute"}, strs)

	_, err = f.Attr("/data@absent")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Attr("/data")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestVarLenAttributes(t *testing.T) {
	f := openFixture(t, "varlen_attrs.h5")
	a, err := f.Attr("/data@notes")
	require.NoError(t, err)
	assert.Equal(t, "vlen-string", a.Dtype())
	v, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, "This is a longer string that tests variable-length storage in the global heap", v)

	author, err := f.Attr("/data@author")
	require.NoError(t, err)
	v, err = author.Value()
	require.NoError(t, err)
	assert.Equal(t, "Test Author", v)
}

func TestV0Attributes(t *testing.T) {
	f := openFixture(t, "v0_nested_attrs.h5")

	version, err := f.Attr("/@file_version")
	require.NoError(t, err)
	v, err := version.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	units, err := f.Attr("/sensors/temperature@units")
	require.NoError(t, err)
	v, err = units.Value()
	require.NoError(t, err)
	assert.Equal(t, "celsius", v)

	g, err := f.OpenGroup("/sensors")
	require.NoError(t, err)
	loc := g.Attr("location")
	require.NotNil(t, loc)
	v, err = loc.Value()
	require.NoError(t, err)
	assert.Equal(t, "building_a", v)

	ds, err := g.OpenDataset("temperature")
	require.NoError(t, err)
	temps, err := ds.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{22.5, 23.1, 22.8, 23.5, 24.0}, temps)
}
