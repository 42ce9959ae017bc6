package heap

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// GlobalRef is the on-disk reference stored for each variable-length
// element: sequence length, collection address and object index.
type GlobalRef struct {
	Length     uint32
	Collection uint64
	Index      uint32
}

// RefSize returns the encoded size of a GlobalRef for an offset width.
func RefSize(offsetSize int) int { return 4 + offsetSize + 4 }

// DecodeRef decodes a GlobalRef from raw element bytes.
func DecodeRef(r *binary.Reader, raw []byte) (GlobalRef, error) {
	sub := r.Sub(raw)
	var ref GlobalRef
	var err error
	if ref.Length, err = sub.ReadUint32(); err != nil {
		return ref, err
	}
	if ref.Collection, err = sub.ReadOffset(); err != nil {
		return ref, err
	}
	ref.Index, err = sub.ReadUint32()
	return ref, err
}

// Collection is one parsed global heap collection.
type Collection struct {
	Address uint64
	objects map[uint32][]byte
}

// ReadCollection parses the global heap collection at address.
func ReadCollection(r *binary.Reader, address uint64) (*Collection, error) {
	hr := r.At(int64(address))
	head, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading global heap: %w", err)
	}
	if string(head[:4]) != "GCOL" {
		return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSignature, head[:4], address)
	}
	if head[4] != 1 {
		return nil, fmt.Errorf("unsupported global heap version %d", head[4])
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	raw, err := r.At(int64(address)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading global heap collection: %w", err)
	}

	c := &Collection{Address: address, objects: make(map[uint32][]byte)}
	br := r.Sub(raw)
	br.Skip(8 + int64(r.LengthSize()))
	objHead := int64(8 + r.LengthSize())
	for br.Pos()+objHead <= int64(len(raw)) {
		idx, err := br.ReadUint16()
		if err != nil {
			return nil, err
		}
		// Index 0 marks the free space at the end of the collection.
		if idx == 0 {
			break
		}
		br.Skip(6)
		n, err := br.ReadLength()
		if err != nil {
			return nil, err
		}
		data, err := br.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("global heap object %d: %w", idx, err)
		}
		c.objects[uint32(idx)] = data
		br.Align(8)
	}
	return c, nil
}

// Object returns the bytes of object idx.
func (c *Collection) Object(idx uint32) ([]byte, error) {
	data, ok := c.objects[idx]
	if !ok {
		return nil, fmt.Errorf("%w: object %d not in collection at %d", ErrBadOffset, idx, c.Address)
	}
	return data, nil
}

// Cache memoizes collections by address for the lifetime of one file.
type Cache struct {
	r           *binary.Reader
	collections map[uint64]*Collection
}

// NewCache returns an empty collection cache reading through r.
func NewCache(r *binary.Reader) *Cache {
	return &Cache{r: r, collections: make(map[uint64]*Collection)}
}

// Resolve returns the bytes a variable-length reference points to. A zero
// length reference resolves to nil without touching the heap.
func (c *Cache) Resolve(ref GlobalRef) ([]byte, error) {
	if ref.Length == 0 || ref.Collection == 0 {
		return nil, nil
	}
	col, ok := c.collections[ref.Collection]
	if !ok {
		var err error
		if col, err = ReadCollection(c.r, ref.Collection); err != nil {
			return nil, err
		}
		c.collections[ref.Collection] = col
	}
	return col.Object(ref.Index)
}
