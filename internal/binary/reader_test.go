package binary

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderWidths(t *testing.T) {
	cfg := Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 2}
	buf := NewBuffer(cfg)
	buf.PutUint8(7)
	buf.PutOffset(0x01020304)
	buf.PutLength(0xBEEF)
	buf.PutUndefined()
	buf.PutBytes([]byte("abc\x00zz"))

	r := NewReader(bytes.NewReader(buf.Bytes()), cfg)
	v8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), v8)

	off, err := r.ReadOffset()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x01020304), off)

	l, err := r.ReadLength()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xBEEF), l)

	undef, err := r.ReadOffset()
	require.NoError(t, err)
	assert.True(t, r.IsUndefinedOffset(undef))

	s, err := r.ReadCString(16)
	require.NoError(t, err)
	assert.Equal(t, "abc", s)
	assert.Equal(t, int64(15), r.Pos())

	_, err = r.ReadUint32()
	assert.Error(t, err)
}

func TestReaderAlignAndSub(t *testing.T) {
	r := NewReader(bytes.NewReader(make([]byte, 32)), DefaultConfig())
	r.Skip(3)
	r.Align(8)
	assert.Equal(t, int64(8), r.Pos())
	r.Align(8)
	assert.Equal(t, int64(8), r.Pos())

	sub := r.Sub([]byte{0x34, 0x12})
	v, err := sub.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v)
	assert.Equal(t, int64(8), r.Pos())
}

func TestBigEndianBuffer(t *testing.T) {
	cfg := Config{ByteOrder: binary.BigEndian, OffsetSize: 4, LengthSize: 4}
	buf := NewBuffer(cfg)
	buf.PutOffset(0)
	buf.PatchOffset(0, 0x0A0B0C0D)
	assert.Equal(t, []byte{0x0A, 0x0B, 0x0C, 0x0D}, buf.Bytes())
	assert.Equal(t, uint64(0x0A0B0C0D), DecodeUint(buf.Bytes(), binary.BigEndian))
	assert.Equal(t, uint64(0x0B0C0D), DecodeUint(buf.Bytes()[1:], binary.BigEndian))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{OffsetSize: 3, LengthSize: 8}.Validate(), ErrInvalidSize)
}
