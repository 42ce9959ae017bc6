package dtype

import (
	"bytes"
	"fmt"
	"math"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// VarLenResolver returns the bytes a variable-length element refers to,
// given the element's raw on-disk reference.
type VarLenResolver func(ref []byte) ([]byte, error)

// Decode converts n elements of data into []int64, []uint64, []float64 or
// []string according to dt.
func Decode(dt *message.Datatype, data []byte, n int, vlen VarLenResolver) (any, error) {
	k, err := KindOf(dt)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindInt:
		return Int64s(dt, data, n)
	case KindUint:
		return Uint64s(dt, data, n)
	case KindFloat:
		return Float64s(dt, data, n)
	default:
		return Strings(dt, data, n, vlen)
	}
}

// Int64s converts signed or unsigned integers to int64. Unsigned values
// above math.MaxInt64 wrap.
func Int64s(dt *message.Datatype, data []byte, n int) ([]int64, error) {
	base, k, err := numeric(dt)
	if err != nil {
		return nil, err
	}
	if k == KindFloat {
		return nil, fmt.Errorf("%w: %s to int64", ErrUnsupported, dt)
	}
	size := int(base.Size)
	if err := checkLen(data, size, n); err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = integer(base, data[i*size:(i+1)*size])
	}
	return out, nil
}

// Uint64s converts integers to uint64. Negative values wrap.
func Uint64s(dt *message.Datatype, data []byte, n int) ([]uint64, error) {
	vals, err := Int64s(dt, data, n)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i, v := range vals {
		out[i] = uint64(v)
	}
	return out, nil
}

// Float64s converts any numeric type to float64.
func Float64s(dt *message.Datatype, data []byte, n int) ([]float64, error) {
	base, k, err := numeric(dt)
	if err != nil {
		return nil, err
	}
	size := int(base.Size)
	if err := checkLen(data, size, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		elem := data[i*size : (i+1)*size]
		switch {
		case k == KindFloat && size == 4:
			out[i] = float64(math.Float32frombits(base.Order.Uint32(elem)))
		case k == KindFloat:
			out[i] = math.Float64frombits(base.Order.Uint64(elem))
		case k == KindUint:
			out[i] = float64(uint64(integer(base, elem)))
		default:
			out[i] = float64(integer(base, elem))
		}
	}
	return out, nil
}

// Float32s converts any numeric type to float32, the element type of
// matrix planes.
func Float32s(dt *message.Datatype, data []byte, n int) ([]float32, error) {
	base, k, err := numeric(dt)
	if err != nil {
		return nil, err
	}
	if k == KindFloat && base.Size == 4 {
		if err := checkLen(data, 4, n); err != nil {
			return nil, err
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(base.Order.Uint32(data[i*4:]))
		}
		return out, nil
	}
	wide, err := Float64s(dt, data, n)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i, v := range wide {
		out[i] = float32(v)
	}
	return out, nil
}

func integer(dt *message.Datatype, elem []byte) int64 {
	v := binary.DecodeUint(elem, dt.Order)
	if dt.Signed && len(elem) < 8 {
		shift := uint(64 - 8*len(elem))
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

// Strings converts fixed-length or variable-length strings. Fixed-length
// values are cut at the first NUL for null-terminated padding and have
// trailing pad bytes removed otherwise.
func Strings(dt *message.Datatype, data []byte, n int, vlen VarLenResolver) ([]string, error) {
	if dt == nil || !dt.IsString() {
		return nil, fmt.Errorf("%w: %v is not a string type", ErrUnsupported, dt)
	}
	size := int(dt.Size)
	if err := checkLen(data, size, n); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		elem := data[i*size : (i+1)*size]
		if dt.Class == message.ClassVarLen {
			if vlen == nil {
				return nil, fmt.Errorf("%w: no resolver for variable-length strings", ErrUnsupported)
			}
			b, err := vlen(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = string(trimPad(b, dt.Pad))
			continue
		}
		out[i] = string(trimPad(elem, dt.Pad))
	}
	return out, nil
}

func trimPad(b []byte, pad message.StringPad) []byte {
	switch pad {
	case message.PadSpace:
		return bytes.TrimRight(b, " ")
	case message.PadNull:
		return bytes.TrimRight(b, "\x00")
	default:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return b[:i]
		}
		return b
	}
}
