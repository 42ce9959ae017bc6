package h5build

import (
	"encoding/binary"
	"fmt"
	"math"

	binpkg "github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/heap"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

const (
	offsetSize = 8
	lengthSize = 8
)

func config() binpkg.Config {
	return binpkg.Config{ByteOrder: binary.LittleEndian, OffsetSize: offsetSize, LengthSize: lengthSize}
}

func newBuffer() *binpkg.Buffer { return binpkg.NewBuffer(config()) }

// elements is a value encoded for storage.
type elements struct {
	datatype []byte
	size     int
	n        int
	scalar   bool
	raw      []byte
	// strs holds variable-length strings, which only get their raw
	// heap references once a collection has been written.
	strs []string
}

func encodeValue(v any, s spec) (*elements, error) {
	be := s.bigEndian
	switch v := v.(type) {
	case int8:
		return fixed([]int8{v}, 1, true, be, true), nil
	case []int8:
		return fixed(v, 1, true, be, false), nil
	case int16:
		return fixed([]int16{v}, 2, true, be, true), nil
	case []int16:
		return fixed(v, 2, true, be, false), nil
	case int32:
		return fixed([]int32{v}, 4, true, be, true), nil
	case []int32:
		return fixed(v, 4, true, be, false), nil
	case int64:
		return fixed([]int64{v}, 8, true, be, true), nil
	case []int64:
		return fixed(v, 8, true, be, false), nil
	case int:
		return fixed([]int{v}, 8, true, be, true), nil
	case []int:
		return fixed(v, 8, true, be, false), nil
	case uint8:
		return fixed([]uint8{v}, 1, false, be, true), nil
	case []uint8:
		return fixed(v, 1, false, be, false), nil
	case uint16:
		return fixed([]uint16{v}, 2, false, be, true), nil
	case []uint16:
		return fixed(v, 2, false, be, false), nil
	case uint32:
		return fixed([]uint32{v}, 4, false, be, true), nil
	case []uint32:
		return fixed(v, 4, false, be, false), nil
	case uint64:
		return fixed([]uint64{v}, 8, false, be, true), nil
	case []uint64:
		return fixed(v, 8, false, be, false), nil
	case float32:
		return floats([]float32{v}, 4, be, true), nil
	case []float32:
		return floats(v, 4, be, false), nil
	case float64:
		return floats([]float64{v}, 8, be, true), nil
	case []float64:
		return floats(v, 8, be, false), nil
	case string:
		return stringValues([]string{v}, s.varLen, true), nil
	case []string:
		return stringValues(v, s.varLen, false), nil
	}
	return nil, fmt.Errorf("%w: values of type %T", ErrInvalid, v)
}

func order(bigEndian bool) binary.ByteOrder {
	if bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func fixed[T int8 | int16 | int32 | int64 | int | uint8 | uint16 | uint32 | uint64](vals []T, size int, signed, be, scalar bool) *elements {
	bo := order(be)
	raw := make([]byte, len(vals)*size)
	for i, v := range vals {
		dst := raw[i*size:]
		switch size {
		case 1:
			dst[0] = byte(v)
		case 2:
			bo.PutUint16(dst, uint16(v))
		case 4:
			bo.PutUint32(dst, uint32(v))
		default:
			bo.PutUint64(dst, uint64(v))
		}
	}
	return &elements{datatype: fixedPointType(size, signed, be), size: size, n: len(vals), scalar: scalar, raw: raw}
}

func floats[T float32 | float64](vals []T, size int, be, scalar bool) *elements {
	bo := order(be)
	raw := make([]byte, len(vals)*size)
	for i, v := range vals {
		if size == 4 {
			bo.PutUint32(raw[i*4:], math.Float32bits(float32(v)))
		} else {
			bo.PutUint64(raw[i*8:], math.Float64bits(float64(v)))
		}
	}
	return &elements{datatype: floatType(size, be), size: size, n: len(vals), scalar: scalar, raw: raw}
}

func stringValues(vals []string, varLen, scalar bool) *elements {
	if varLen {
		return &elements{
			datatype: varLenStringType(),
			size:     heap.RefSize(offsetSize),
			n:        len(vals),
			scalar:   scalar,
			strs:     vals,
		}
	}
	size := 1
	for _, v := range vals {
		size = max(size, len(v))
	}
	raw := make([]byte, len(vals)*size)
	for i, v := range vals {
		copy(raw[i*size:], v)
	}
	return &elements{datatype: stringType(size), size: size, n: len(vals), scalar: scalar, raw: raw}
}

// Datatype message bodies, all version 1.

func typeHeader(b *binpkg.Buffer, class message.Class, bits [3]byte, size int) {
	b.PutUint8(0x10 | uint8(class))
	b.PutBytes(bits[:])
	b.PutUint32(uint32(size))
}

func fixedPointType(size int, signed, be bool) []byte {
	var bits [3]byte
	if be {
		bits[0] |= 0x01
	}
	if signed {
		bits[0] |= 0x08
	}
	b := newBuffer()
	typeHeader(b, message.ClassFixedPoint, bits, size)
	b.PutUint16(0)
	b.PutUint16(uint16(size * 8))
	return b.Bytes()
}

func floatType(size int, be bool) []byte {
	// Implied leading mantissa bit, sign in the top bit.
	bits := [3]byte{0x20, byte(size*8 - 1), 0}
	if be {
		bits[0] |= 0x01
	}
	b := newBuffer()
	typeHeader(b, message.ClassFloat, bits, size)
	b.PutUint16(0)
	b.PutUint16(uint16(size * 8))
	if size == 4 {
		b.PutBytes([]byte{23, 8, 0, 23})
		b.PutUint32(127)
	} else {
		b.PutBytes([]byte{52, 11, 0, 52})
		b.PutUint32(1023)
	}
	return b.Bytes()
}

// stringType is a null-padded UTF-8 string of size bytes.
func stringType(size int) []byte {
	b := newBuffer()
	typeHeader(b, message.ClassString, [3]byte{byte(message.PadNull) | 1<<4}, size)
	return b.Bytes()
}

// varLenStringType is a null-terminated UTF-8 variable-length string.
func varLenStringType() []byte {
	b := newBuffer()
	typeHeader(b, message.ClassVarLen, [3]byte{0x01, 0x01}, heap.RefSize(offsetSize))
	b.PutBytes(fixedPointType(1, false, false))
	return b.Bytes()
}

func dataspace(shape []uint64, scalar bool) []byte {
	b := newBuffer()
	b.PutUint8(2)
	b.PutUint8(uint8(len(shape)))
	b.PutUint8(0)
	if scalar {
		b.PutUint8(uint8(message.SpaceScalar))
		return b.Bytes()
	}
	b.PutUint8(uint8(message.SpaceSimple))
	for _, d := range shape {
		b.PutLength(d)
	}
	return b.Bytes()
}
