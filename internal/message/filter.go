package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate    uint16 = 1
	FilterShuffle    uint16 = 2
	FilterFletcher32 uint16 = 3
	FilterSZIP       uint16 = 4
	FilterLZ4        uint16 = 32004
	FilterZstd       uint16 = 32015
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// Optional reports whether a failure in this filter may be ignored.
func (f FilterInfo) Optional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline lists the filters applied to each chunk, in write order.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// Has reports whether the pipeline contains filter id.
func (m *FilterPipeline) Has(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func parseFilterPipeline(r *binary.Reader) (*FilterPipeline, error) {
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	m := &FilterPipeline{Version: head[0]}
	n := int(head[1])
	switch m.Version {
	case 1:
		r.Skip(6)
	case 2:
	default:
		return nil, fmt.Errorf("filter pipeline version %d: %w", m.Version, ErrUnsupported)
	}

	m.Filters = make([]FilterInfo, 0, n)
	for i := 0; i < n; i++ {
		f, err := parseFilterInfo(r, m.Version)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		m.Filters = append(m.Filters, f)
	}
	return m, nil
}

func parseFilterInfo(r *binary.Reader, version uint8) (FilterInfo, error) {
	var f FilterInfo
	id, err := r.ReadUint16()
	if err != nil {
		return f, err
	}
	f.ID = id

	var nameLen uint16
	if version == 1 || id >= 256 {
		if nameLen, err = r.ReadUint16(); err != nil {
			return f, err
		}
	}
	if f.Flags, err = r.ReadUint16(); err != nil {
		return f, err
	}
	nvalues, err := r.ReadUint16()
	if err != nil {
		return f, err
	}
	if nameLen > 0 {
		raw, err := r.ReadBytes(int(nameLen))
		if err != nil {
			return f, err
		}
		f.Name = cString(raw)
	}
	f.ClientData = make([]uint32, nvalues)
	for i := range f.ClientData {
		if f.ClientData[i], err = r.ReadUint32(); err != nil {
			return f, err
		}
	}
	if version == 1 && nvalues%2 == 1 {
		r.Skip(4)
	}
	return f, nil
}

// cString returns raw up to its first NUL.
func cString(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}
