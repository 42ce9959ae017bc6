package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// LayoutClass is the storage class of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// ChunkIndex identifies how chunk addresses are indexed. Layout messages
// before version 4 always use a v1 B-tree.
type ChunkIndex uint8

const (
	IndexBTreeV1         ChunkIndex = 0
	IndexSingleChunk     ChunkIndex = 1
	IndexImplicit        ChunkIndex = 2
	IndexFixedArray      ChunkIndex = 3
	IndexExtensibleArray ChunkIndex = 4
	IndexBTreeV2         ChunkIndex = 5
)

func (i ChunkIndex) String() string {
	names := [...]string{"v1 B-tree", "single chunk", "implicit", "fixed array",
		"extensible array", "v2 B-tree"}
	if int(i) < len(names) {
		return names[i]
	}
	return fmt.Sprintf("index(%d)", uint8(i))
}

// DataLayout describes where a dataset's raw data lives.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact
	CompactData []byte

	// Contiguous storage, or the index address of chunked storage.
	Address uint64
	Size    uint64

	// Chunked
	ChunkDims   []uint64
	ElementSize uint32
	Index       ChunkIndex
	Flags       uint8

	// Single-chunk index with filters.
	FilteredSize uint64
	FilterMask   uint32

	// Fixed array page bits.
	PageBits uint8
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func parseDataLayout(r *binary.Reader) (*DataLayout, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch version {
	case 1, 2:
		return parseLayoutV1(r, version)
	case 3, 4, 5:
	default:
		return nil, fmt.Errorf("layout version %d: %w", version, ErrUnsupported)
	}

	class, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &DataLayout{Version: version, Class: LayoutClass(class)}

	switch m.Class {
	case LayoutCompact:
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		if m.CompactData, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
		m.Size = uint64(n)
	case LayoutContiguous:
		if m.Address, err = r.ReadOffset(); err != nil {
			return nil, err
		}
		if m.Size, err = r.ReadLength(); err != nil {
			return nil, err
		}
	case LayoutChunked:
		if version == 3 {
			err = m.parseChunkedV3(r)
		} else {
			err = m.parseChunkedV4(r)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s layout: %w", m.Class, ErrUnsupported)
	}
	return m, nil
}

func (m *DataLayout) parseChunkedV3(r *binary.Reader) error {
	ndims, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if ndims < 2 {
		return fmt.Errorf("chunked layout with %d dimensions", ndims)
	}
	if m.Address, err = r.ReadOffset(); err != nil {
		return err
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		v, err := r.ReadUint32()
		if err != nil {
			return err
		}
		dims[i] = uint64(v)
	}
	m.ChunkDims = dims[:ndims-1]
	m.ElementSize = uint32(dims[ndims-1])
	m.Index = IndexBTreeV1
	return nil
}

func (m *DataLayout) parseChunkedV4(r *binary.Reader) error {
	head, err := r.ReadBytes(3)
	if err != nil {
		return err
	}
	m.Flags = head[0]
	ndims, width := int(head[1]), int(head[2])
	if ndims < 2 {
		return fmt.Errorf("chunked layout with %d dimensions", ndims)
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		if dims[i], err = r.ReadUintN(width); err != nil {
			return err
		}
	}
	m.ChunkDims = dims[:ndims-1]
	m.ElementSize = uint32(dims[ndims-1])

	idx, err := r.ReadUint8()
	if err != nil {
		return err
	}
	m.Index = ChunkIndex(idx)
	switch m.Index {
	case IndexSingleChunk:
		if m.Flags&0x02 != 0 {
			if m.FilteredSize, err = r.ReadLength(); err != nil {
				return err
			}
			if m.FilterMask, err = r.ReadUint32(); err != nil {
				return err
			}
		}
	case IndexImplicit:
	case IndexFixedArray:
		if m.PageBits, err = r.ReadUint8(); err != nil {
			return err
		}
	case IndexExtensibleArray:
		r.Skip(5)
	case IndexBTreeV2:
		r.Skip(6)
	default:
		return fmt.Errorf("chunk index type %d: %w", idx, ErrUnsupported)
	}
	m.Address, err = r.ReadOffset()
	return err
}

// parseLayoutV1 handles the layout message of HDF5 1.4 and 1.6 files.
func parseLayoutV1(r *binary.Reader, version uint8) (*DataLayout, error) {
	head, err := r.ReadBytes(7)
	if err != nil {
		return nil, err
	}
	ndims := int(head[0])
	m := &DataLayout{Version: version, Class: LayoutClass(head[1])}
	if m.Class != LayoutCompact {
		if m.Address, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		dims[i] = uint64(v)
	}

	switch m.Class {
	case LayoutChunked:
		if ndims < 2 {
			return nil, fmt.Errorf("chunked layout with %d dimensions", ndims)
		}
		es, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		m.ChunkDims = dims[:ndims-1]
		m.ElementSize = es
		m.Index = IndexBTreeV1
	case LayoutCompact:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if m.CompactData, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
		m.Size = uint64(n)
	case LayoutContiguous:
		// Size is implied by the dataspace and datatype.
	default:
		return nil, fmt.Errorf("%s layout: %w", m.Class, ErrUnsupported)
	}
	return m, nil
}
