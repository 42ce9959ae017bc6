package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// SpaceKind distinguishes scalar, simple and null dataspaces.
type SpaceKind uint8

const (
	SpaceScalar SpaceKind = 0
	SpaceSimple SpaceKind = 1
	SpaceNull   SpaceKind = 2
)

// Unlimited is the max-dimension value for an unlimited axis.
const Unlimited = ^uint64(0)

// Dataspace describes the shape of a dataset or attribute.
type Dataspace struct {
	Version uint8
	Kind    SpaceKind
	Dims    []uint64
	MaxDims []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank returns the number of dimensions.
func (m *Dataspace) Rank() int { return len(m.Dims) }

// NumElements returns the number of elements: 1 for scalars, 0 for null
// dataspaces.
func (m *Dataspace) NumElements() uint64 {
	switch m.Kind {
	case SpaceNull:
		return 0
	case SpaceScalar:
		return 1
	}
	n := uint64(1)
	for _, d := range m.Dims {
		n *= d
	}
	return n
}

func parseDataspace(r *binary.Reader) (*Dataspace, error) {
	head, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	version, rank, flags := head[0], int(head[1]), head[2]
	m := &Dataspace{Version: version, Kind: SpaceSimple}

	switch version {
	case 1:
		r.Skip(4)
		if rank == 0 {
			m.Kind = SpaceScalar
		}
	case 2:
		m.Kind = SpaceKind(head[3])
		if m.Kind > SpaceNull {
			return nil, fmt.Errorf("dataspace type %d: %w", m.Kind, ErrUnsupported)
		}
	default:
		return nil, fmt.Errorf("dataspace version %d: %w", version, ErrUnsupported)
	}

	m.Dims = make([]uint64, rank)
	for i := range m.Dims {
		if m.Dims[i], err = r.ReadLength(); err != nil {
			return nil, err
		}
	}
	if flags&0x01 != 0 {
		m.MaxDims = make([]uint64, rank)
		for i := range m.MaxDims {
			if m.MaxDims[i], err = r.ReadLength(); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}
