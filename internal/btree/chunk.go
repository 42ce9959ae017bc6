package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Chunk locates one stored chunk of a dataset.
type Chunk struct {
	// Offset is the element coordinate of the chunk's first element.
	Offset     []uint64
	Address    uint64
	Size       uint64
	FilterMask uint32
}

// ReadChunksV1 returns every chunk indexed by the v1 B-tree at address.
// rank is the dataset rank; keys carry one extra offset for the element
// byte dimension, which is always zero.
func ReadChunksV1(r *binary.Reader, address uint64, rank int) ([]Chunk, error) {
	keySize := 8 + 8*(rank+1)
	var out []Chunk
	visited := make(map[uint64]bool)
	err := walkV1(r, address, nodeTypeChunk, keySize, visited, func(child uint64, key []byte) error {
		kr := r.Sub(key)
		size, err := kr.ReadUint32()
		if err != nil {
			return err
		}
		mask, err := kr.ReadUint32()
		if err != nil {
			return err
		}
		offset := make([]uint64, rank)
		for i := range offset {
			if offset[i], err = kr.ReadUint64(); err != nil {
				return err
			}
		}
		out = append(out, Chunk{Offset: offset, Address: child, Size: uint64(size), FilterMask: mask})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading chunk B-tree at %d: %w", address, err)
	}
	return out, nil
}

// Grid relates dataset dimensions to the chunk grid laid over them.
type Grid struct {
	Dims  []uint64
	Chunk []uint64
}

// Counts returns the number of chunks along each dimension.
func (g Grid) Counts() []uint64 {
	out := make([]uint64, len(g.Dims))
	for i, d := range g.Dims {
		out[i] = (d + g.Chunk[i] - 1) / g.Chunk[i]
	}
	return out
}

// Total returns the number of chunks in the grid.
func (g Grid) Total() uint64 {
	n := uint64(1)
	for _, c := range g.Counts() {
		n *= c
	}
	return n
}

// Offset returns the element offset of the n-th chunk in row-major order.
func (g Grid) Offset(n uint64) []uint64 {
	counts := g.Counts()
	out := make([]uint64, len(counts))
	for i := len(counts) - 1; i >= 0; i-- {
		out[i] = (n % counts[i]) * g.Chunk[i]
		n /= counts[i]
	}
	return out
}
