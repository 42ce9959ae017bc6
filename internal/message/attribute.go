package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Attribute is a small named value attached to an object header.
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	// Data holds the raw element bytes. Variable-length elements are
	// global heap references.
	Data []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func parseAttribute(r *binary.Reader, size int) (*Attribute, error) {
	head, err := r.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	m := &Attribute{Version: head[0]}
	flags := head[1]
	nameSize := int(r.ByteOrder().Uint16(head[2:4]))
	typeSize := int(r.ByteOrder().Uint16(head[4:6]))
	spaceSize := int(r.ByteOrder().Uint16(head[6:8]))

	pad := func(n int) int { return n }
	switch m.Version {
	case 1:
		pad = func(n int) int { return (n + 7) &^ 7 }
	case 2:
	case 3:
		r.Skip(1)
	default:
		return nil, fmt.Errorf("attribute version %d: %w", m.Version, ErrUnsupported)
	}
	if m.Version > 1 && flags&0x03 != 0 {
		return nil, fmt.Errorf("attribute with shared datatype or dataspace: %w", ErrUnsupported)
	}

	raw, err := r.ReadBytes(pad(nameSize))
	if err != nil {
		return nil, fmt.Errorf("attribute name: %w", err)
	}
	m.Name = cString(raw)

	raw, err = r.ReadBytes(pad(typeSize))
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", m.Name, err)
	}
	if m.Datatype, err = parseDatatype(r.Sub(raw)); err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", m.Name, err)
	}

	raw, err = r.ReadBytes(pad(spaceSize))
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", m.Name, err)
	}
	if m.Dataspace, err = parseDataspace(r.Sub(raw)); err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", m.Name, err)
	}

	n := int(m.Dataspace.NumElements()) * int(m.Datatype.Size)
	if rest := size - int(r.Pos()); n > rest {
		return nil, fmt.Errorf("attribute %q: %w: need %d data bytes, have %d", m.Name, ErrTruncated, n, rest)
	}
	if m.Data, err = r.ReadBytes(n); err != nil {
		return nil, err
	}
	return m, nil
}
