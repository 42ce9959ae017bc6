package filter

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// sample returns float32 bytes that compress well but not trivially.
func sample(n int) []byte {
	out := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(i%97)/3))
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	data := sample(1000)
	tests := []struct {
		name   string
		filter Filter
	}{
		{"deflate", NewDeflate([]uint32{6})},
		{"deflate default level", NewDeflate(nil)},
		{"shuffle", NewShuffle([]uint32{4})},
		{"fletcher32", Fletcher32{}},
		{"lz4", NewLZ4(nil)},
		{"lz4 small blocks", NewLZ4([]uint32{256})},
		{"zstd", NewZstd(nil)},
		{"zstd level 19", NewZstd([]uint32{19})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := tt.filter.Encode(data)
			require.NoError(t, err)
			dec, err := tt.filter.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, data, dec)
		})
	}
}

func TestShuffleLayout(t *testing.T) {
	s := NewShuffle([]uint32{2})
	enc, err := s.Encode([]byte{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 3, 5, 2, 4, 6, 7}, enc)

	one := NewShuffle([]uint32{4})
	out, err := one.Decode([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, out)
}

func TestFletcher32(t *testing.T) {
	f := Fletcher32{}
	enc, err := f.Encode([]byte("abcde"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4ff029c7), binary.LittleEndian.Uint32(enc[5:]))

	t.Run("byte-reversed accepted", func(t *testing.T) {
		legacy := append([]byte("abcde"), 0x4f, 0xf0, 0x29, 0xc7)
		out, err := f.Decode(legacy)
		require.NoError(t, err)
		assert.Equal(t, []byte("abcde"), out)
	})

	t.Run("mismatch", func(t *testing.T) {
		bad := bytes.Clone(enc)
		bad[0] ^= 0xff
		_, err := f.Decode(bad)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("short", func(t *testing.T) {
		_, err := f.Decode([]byte{1, 2})
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestLZ4RawBlock(t *testing.T) {
	var in []byte
	in = binary.BigEndian.AppendUint64(in, 3)
	in = binary.BigEndian.AppendUint32(in, 3)
	in = binary.BigEndian.AppendUint32(in, 3)
	in = append(in, 'x', 'y', 'z')

	out, err := NewLZ4(nil).Decode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), out)

	_, err = NewLZ4(nil).Decode(in[:14])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCorruptInput(t *testing.T) {
	for _, f := range []Filter{NewDeflate(nil), NewZstd(nil), NewLZ4(nil)} {
		_, err := f.Decode([]byte("definitely not compressed"))
		assert.ErrorIs(t, err, ErrCorrupt, Name(f.ID()))
	}
}

func TestPipeline(t *testing.T) {
	fp := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterShuffle, ClientData: []uint32{4}},
		{ID: message.FilterDeflate, ClientData: []uint32{4}},
		{ID: message.FilterFletcher32},
	}}
	p, err := NewPipeline(fp)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())

	data := sample(256)
	enc, err := p.Encode(data)
	require.NoError(t, err)
	dec, err := p.Decode(enc, 0)
	require.NoError(t, err)
	assert.Equal(t, data, dec)

	t.Run("mask skips filters", func(t *testing.T) {
		// Chunk written with deflate skipped (bit 1).
		shuffled, err := NewShuffle([]uint32{4}).Encode(data)
		require.NoError(t, err)
		stored, err := Fletcher32{}.Encode(shuffled)
		require.NoError(t, err)
		dec, err := p.Decode(stored, 1<<1)
		require.NoError(t, err)
		assert.Equal(t, data, dec)
	})

	t.Run("mask bits follow message positions", func(t *testing.T) {
		withOptional := &message.FilterPipeline{Filters: []message.FilterInfo{
			{ID: 307, Flags: 0x01},
			{ID: message.FilterDeflate},
		}}
		p, err := NewPipeline(withOptional)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Len())
		raw := []byte("uncompressed")
		out, err := p.Decode(raw, 1<<1)
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	})

	t.Run("mandatory unknown filter", func(t *testing.T) {
		_, err := NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{{ID: message.FilterSZIP}}})
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.ErrorContains(t, err, "szip")
	})

	t.Run("nil message", func(t *testing.T) {
		p, err := NewPipeline(nil)
		require.NoError(t, err)
		assert.True(t, p.Empty())
		out, err := p.Decode([]byte{1}, 0)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, out)
	})
}
