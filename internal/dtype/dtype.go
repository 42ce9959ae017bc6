package dtype

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

var (
	ErrUnsupported = errors.New("unsupported datatype")
	ErrShortData   = errors.New("data shorter than element count")
)

// Kind is the Go representation chosen for a datatype.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	}
	return "invalid"
}

// KindOf classifies dt.
func KindOf(dt *message.Datatype) (Kind, error) {
	if dt == nil {
		return KindInvalid, fmt.Errorf("%w: nil datatype", ErrUnsupported)
	}
	switch dt.Class {
	case message.ClassFixedPoint:
		if dt.Size < 1 || dt.Size > 8 {
			return KindInvalid, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, dt.Size)
		}
		if dt.Signed {
			return KindInt, nil
		}
		return KindUint, nil
	case message.ClassFloat:
		if dt.Size != 4 && dt.Size != 8 {
			return KindInvalid, fmt.Errorf("%w: %d-byte float", ErrUnsupported, dt.Size)
		}
		return KindFloat, nil
	case message.ClassString:
		return KindString, nil
	case message.ClassVarLen:
		if dt.VarLenString {
			return KindString, nil
		}
	case message.ClassEnum:
		return KindOf(dt.Base)
	}
	return KindInvalid, fmt.Errorf("%w: %s", ErrUnsupported, dt.Class)
}

// numeric returns the datatype that actually lays out the bytes of a
// numeric element.
func numeric(dt *message.Datatype) (*message.Datatype, Kind, error) {
	k, err := KindOf(dt)
	if err != nil {
		return nil, k, err
	}
	if k == KindString {
		return nil, k, fmt.Errorf("%w: %s is not numeric", ErrUnsupported, dt)
	}
	for dt.Class == message.ClassEnum {
		dt = dt.Base
	}
	return dt, k, nil
}

func checkLen(data []byte, size, n int) error {
	if len(data) < size*n {
		return fmt.Errorf("%w: %d bytes for %d elements of %d bytes", ErrShortData, len(data), n, size)
	}
	return nil
}
