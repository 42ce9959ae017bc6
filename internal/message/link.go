package message

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// LinkKind is the target kind of a link.
type LinkKind uint8

const (
	LinkHard     LinkKind = 0
	LinkSoft     LinkKind = 1
	LinkExternal LinkKind = 64
)

func (k LinkKind) String() string {
	switch k {
	case LinkHard:
		return "hard"
	case LinkSoft:
		return "soft"
	case LinkExternal:
		return "external"
	}
	return fmt.Sprintf("link(%d)", uint8(k))
}

// Link is one named entry of a compact new-style group.
type Link struct {
	Kind          LinkKind
	Name          string
	CreationOrder uint64

	// Address of the target object header, for hard links.
	Address uint64
	// Target path, for soft links.
	Target string
	// File and path, for external links.
	ExternalFile string
	ExternalPath string
}

func (m *Link) Type() Type { return TypeLink }

func parseLink(r *binary.Reader) (*Link, error) {
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	if head[0] != 1 {
		return nil, fmt.Errorf("link version %d: %w", head[0], ErrUnsupported)
	}
	flags := head[1]
	m := &Link{Kind: LinkHard}

	if flags&0x08 != 0 {
		k, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		m.Kind = LinkKind(k)
	}
	if flags&0x04 != 0 {
		if m.CreationOrder, err = r.ReadUint64(); err != nil {
			return nil, err
		}
	}
	if flags&0x10 != 0 {
		r.Skip(1)
	}
	nameLen, err := r.ReadUintN(1 << int(flags&0x03))
	if err != nil {
		return nil, err
	}
	name, err := r.ReadBytes(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("link name: %w", err)
	}
	m.Name = string(name)

	switch m.Kind {
	case LinkHard:
		m.Address, err = r.ReadOffset()
	case LinkSoft:
		var raw []byte
		if raw, err = readLinkValue(r); err == nil {
			m.Target = string(raw)
		}
	case LinkExternal:
		var raw []byte
		if raw, err = readLinkValue(r); err == nil {
			// flags byte, then file and path, both NUL-terminated
			if len(raw) < 1 {
				return nil, fmt.Errorf("external link %q: %w", m.Name, ErrTruncated)
			}
			parts := bytes.SplitN(raw[1:], []byte{0}, 3)
			m.ExternalFile = string(parts[0])
			if len(parts) > 1 {
				m.ExternalPath = string(parts[1])
			}
		}
	default:
		return nil, fmt.Errorf("link %q kind %d: %w", m.Name, m.Kind, ErrUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("link %q: %w", m.Name, err)
	}
	return m, nil
}

func readLinkValue(r *binary.Reader) ([]byte, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}
