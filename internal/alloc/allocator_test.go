package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlloc(t *testing.T) {
	a := New(48)
	assert.Equal(t, uint64(48), a.Alloc(100, "header"))
	assert.Equal(t, uint64(148), a.Alloc(200, "data"))
	assert.Equal(t, uint64(348), a.EOF())
	assert.Equal(t, uint64(48), a.Base())

	assert.Equal(t, uint64(348), a.Alloc(0, "empty"))
	assert.Equal(t, uint64(348), a.EOF())
	assert.Len(t, a.Regions(), 2)
}

func TestAllocAligned(t *testing.T) {
	tests := []struct {
		eof, align, want uint64
	}{
		{48, 8, 48},
		{49, 8, 56},
		{49, 1, 49},
		{49, 0, 49},
		{100, 64, 128},
	}
	for _, tt := range tests {
		a := New(tt.eof)
		assert.Equal(t, tt.want, a.AllocAligned(10, tt.align, "x"), "eof %d align %d", tt.eof, tt.align)
		assert.Equal(t, tt.want+10, a.EOF())
	}
}

func TestFind(t *testing.T) {
	a := New(0)
	a.Alloc(10, "a")
	a.AllocAligned(5, 16, "b")
	a.Alloc(1, "c")

	r, ok := a.Find(9)
	require.True(t, ok)
	assert.Equal(t, "a", r.Tag)

	_, ok = a.Find(12)
	assert.False(t, ok, "alignment gap")

	r, ok = a.Find(16)
	require.True(t, ok)
	assert.Equal(t, "b [16, 21)", r.String())

	r, ok = a.Find(21)
	require.True(t, ok)
	assert.Equal(t, "c", r.Tag)

	_, ok = a.Find(22)
	assert.False(t, ok)
}

func TestRegionsIsCopy(t *testing.T) {
	a := New(0)
	a.Alloc(4, "a")
	regs := a.Regions()
	regs[0].Tag = "changed"
	assert.Equal(t, "a", a.Regions()[0].Tag)
}
