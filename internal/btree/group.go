package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/heap"
)

var (
	ErrInvalidSignature = errors.New("invalid B-tree signature")
	ErrCycle            = errors.New("B-tree node visited twice")
	ErrChecksumMismatch = errors.New("chunk index checksum mismatch")
)

const (
	nodeTypeGroup = 0
	nodeTypeChunk = 1
)

// GroupEntry is one member of an old-style group.
type GroupEntry struct {
	Name    string
	Address uint64
	// Soft is set for cache type 2 entries, whose target path lives in the
	// group's local heap.
	Soft   bool
	Target string
}

// ReadGroupEntries walks a group B-tree and returns the members in key
// order, which is the byte order of their names.
func ReadGroupEntries(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	var out []GroupEntry
	visited := make(map[uint64]bool)
	err := walkV1(r, address, nodeTypeGroup, r.LengthSize(), visited, func(child uint64, _ []byte) error {
		entries, err := readSymbolNode(r, child, names)
		if err != nil {
			return err
		}
		out = append(out, entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// walkV1 visits every leaf child of the v1 B-tree rooted at address,
// passing the raw key that precedes it. keySize depends on the node type:
// a heap offset for groups, size, mask and rank+1 offsets for chunks.
func walkV1(r *binary.Reader, address uint64, nodeType uint8, keySize int, visited map[uint64]bool, leaf func(child uint64, key []byte) error) error {
	if visited[address] {
		return fmt.Errorf("%w: %d", ErrCycle, address)
	}
	visited[address] = true

	nr := r.At(int64(address))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("reading B-tree node at %d: %w", address, err)
	}
	if string(head[:4]) != "TREE" {
		return fmt.Errorf("%w: %q at %d", ErrInvalidSignature, head[:4], address)
	}
	if head[4] != nodeType {
		return fmt.Errorf("B-tree node at %d has type %d, want %d", address, head[4], nodeType)
	}
	level := head[5]
	n := int(nr.ByteOrder().Uint16(head[6:8]))
	nr.Skip(2 * int64(nr.OffsetSize()))

	for i := 0; i < n; i++ {
		key, err := nr.ReadBytes(keySize)
		if err != nil {
			return err
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if level > 0 {
			err = walkV1(r, child, nodeType, keySize, visited, leaf)
		} else {
			err = leaf(child, key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(address))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading symbol node at %d: %w", address, err)
	}
	if string(head[:4]) != "SNOD" {
		return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSignature, head[:4], address)
	}
	n := int(nr.ByteOrder().Uint16(head[6:8]))
	out := make([]GroupEntry, 0, n)
	for i := 0; i < n; i++ {
		nameOff, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		addr, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		cacheType, err := nr.ReadUint32()
		if err != nil {
			return nil, err
		}
		nr.Skip(4)
		scratch, err := nr.ReadBytes(16)
		if err != nil {
			return nil, err
		}

		name, err := names.String(nameOff)
		if err != nil {
			return nil, fmt.Errorf("symbol %d name: %w", i, err)
		}
		e := GroupEntry{Name: name, Address: addr}
		if cacheType == 2 {
			e.Soft = true
			target, err := names.String(uint64(nr.ByteOrder().Uint32(scratch[:4])))
			if err != nil {
				return nil, fmt.Errorf("soft link %q target: %w", name, err)
			}
			e.Target = target
		}
		out = append(out, e)
	}
	return out, nil
}
