package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// FillValue holds the value used for elements in unallocated chunks.
// Value is nil when no fill value is defined, meaning zero bytes.
type FillValue struct {
	Version uint8
	Defined bool
	Value   []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

func parseFillValue(r *binary.Reader) (*FillValue, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &FillValue{Version: version}

	switch version {
	case 1, 2:
		head, err := r.ReadBytes(3)
		if err != nil {
			return nil, err
		}
		m.Defined = head[2] != 0
		if version == 2 && !m.Defined {
			return m, nil
		}
	case 3:
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		m.Defined = flags&0x20 != 0
		if !m.Defined {
			return m, nil
		}
	default:
		return nil, fmt.Errorf("fill value version %d: %w", version, ErrUnsupported)
	}

	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if size > 0 {
		if m.Value, err = r.ReadBytes(int(size)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// parseFillValueOld reads the pre-1.6 fill value message, which has no
// version byte.
func parseFillValueOld(r *binary.Reader) (*FillValue, error) {
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	m := &FillValue{Defined: size > 0}
	if size > 0 {
		if m.Value, err = r.ReadBytes(int(size)); err != nil {
			return nil, err
		}
	}
	return m, nil
}
