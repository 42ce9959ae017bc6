package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk(t *testing.T) {
	f := openFixture(t, "groups.h5")
	var groups, datasets []string
	err := Walk(f.Root(), func(path string, obj Object, err error) error {
		require.NoError(t, err)
		switch obj.(type) {
		case *Group:
			groups = append(groups, path)
		case *Dataset:
			datasets = append(datasets, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/group1", "/group1/subgroup", "/group2"}, groups)
	assert.Equal(t, []string{"/group1/data", "/group1/subgroup/nested"}, datasets)
}

func TestWalkSkipsSoftLinks(t *testing.T) {
	f := openFixture(t, "softlink.h5")
	var datasets []string
	err := Walk(f.Root(), func(path string, obj Object, err error) error {
		if _, ok := obj.(*Dataset); ok {
			datasets = append(datasets, path)
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/target_dataset", "/target_group/nested"}, datasets)
}

func TestWalkStop(t *testing.T) {
	f := openFixture(t, "v0_nested_attrs.h5")
	var n int
	err := Walk(f.Root(), func(string, Object, error) error {
		n++
		if n == 2 {
			return ErrStopWalk
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
