package dtype

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

func intType(size uint32, signed bool, order binary.ByteOrder) *message.Datatype {
	return &message.Datatype{Class: message.ClassFixedPoint, Size: size, Signed: signed, Order: order}
}

func floatType(size uint32, order binary.ByteOrder) *message.Datatype {
	return &message.Datatype{Class: message.ClassFloat, Size: size, Signed: true, Order: order}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		dt   *message.Datatype
		want Kind
	}{
		{"int32", intType(4, true, binary.LittleEndian), KindInt},
		{"uint8", intType(1, false, binary.LittleEndian), KindUint},
		{"float64", floatType(8, binary.LittleEndian), KindFloat},
		{"fixed string", &message.Datatype{Class: message.ClassString, Size: 10}, KindString},
		{"vlen string", &message.Datatype{Class: message.ClassVarLen, VarLenString: true, Size: 16}, KindString},
		{"enum", &message.Datatype{Class: message.ClassEnum, Size: 1, Base: intType(1, true, binary.LittleEndian)}, KindInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KindOf(tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, dt := range []*message.Datatype{
		nil,
		floatType(2, binary.LittleEndian),
		{Class: message.ClassCompound},
		{Class: message.ClassVarLen, Base: intType(4, true, binary.LittleEndian)},
	} {
		_, err := KindOf(dt)
		assert.ErrorIs(t, err, ErrUnsupported)
	}
}

func TestIntegers(t *testing.T) {
	le := []byte{0xff, 0xff, 0xff, 0xff, 0x05, 0x00, 0x00, 0x00}
	got, err := Int64s(intType(4, true, binary.LittleEndian), le, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1, 5}, got)

	u, err := Uint64s(intType(4, false, binary.LittleEndian), le, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{math.MaxUint32, 5}, u)

	be := []byte{0xff, 0xfe, 0x00, 0x10}
	got, err = Int64s(intType(2, true, binary.BigEndian), be, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{-2, 16}, got)

	_, err = Int64s(floatType(8, binary.LittleEndian), make([]byte, 8), 1)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFloats(t *testing.T) {
	var data []byte
	for _, v := range []float64{1.5, -2.25, math.NaN()} {
		data = binary.BigEndian.AppendUint64(data, math.Float64bits(v))
	}
	got, err := Float64s(floatType(8, binary.BigEndian), data, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.25}, got[:2])
	assert.True(t, math.IsNaN(got[2]))

	f32, err := Float32s(floatType(8, binary.BigEndian), data, 3)
	require.NoError(t, err)
	assert.Equal(t, float32(-2.25), f32[1])

	var single []byte
	single = binary.LittleEndian.AppendUint32(single, math.Float32bits(0.1))
	f32, err = Float32s(floatType(4, binary.LittleEndian), single, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1}, f32)

	ints, err := Float32s(intType(2, false, binary.LittleEndian), []byte{7, 0, 0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 256}, ints)

	_, err = Float64s(floatType(8, binary.LittleEndian), data[:12], 2)
	assert.ErrorIs(t, err, ErrShortData)
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name string
		pad  message.StringPad
		data string
		want []string
	}{
		{"null terminated", message.PadNullTerm, "ab\x00xxyz\x00", []string{"ab", "xyz"}},
		{"null padded", message.PadNull, "abcd\x00\x00\x00\x00", []string{"abcd", ""}},
		{"space padded", message.PadSpace, "a   bc  ", []string{"a", "bc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := &message.Datatype{Class: message.ClassString, Size: 4, Pad: tt.pad}
			got, err := Strings(dt, []byte(tt.data), 2, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVarLenStrings(t *testing.T) {
	dt := &message.Datatype{Class: message.ClassVarLen, VarLenString: true, Size: 2}
	heap := map[byte]string{1: "alpha", 2: "beta"}
	resolve := func(ref []byte) ([]byte, error) {
		s, ok := heap[ref[0]]
		if !ok {
			return nil, errors.New("dangling")
		}
		return []byte(s), nil
	}

	got, err := Strings(dt, []byte{2, 0, 1, 0}, 2, resolve)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "alpha"}, got)

	_, err = Strings(dt, []byte{9, 0}, 1, resolve)
	assert.ErrorContains(t, err, "element 0")

	_, err = Strings(dt, []byte{1, 0}, 1, nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDecode(t *testing.T) {
	v, err := Decode(intType(1, false, binary.LittleEndian), []byte{3, 4}, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, v)

	v, err = Decode(&message.Datatype{Class: message.ClassString, Size: 2}, []byte("hi"), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, v)

	enum := &message.Datatype{Class: message.ClassEnum, Size: 1, Base: intType(1, true, binary.LittleEndian)}
	v, err = Decode(enum, []byte{0xff}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1}, v)
}
