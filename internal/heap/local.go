package heap

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

var (
	ErrInvalidSignature = errors.New("invalid heap signature")
	ErrBadOffset        = errors.New("heap offset out of range")
)

// LocalHeap is the data segment of an old-style group's local heap.
type LocalHeap struct {
	Address     uint64
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the heap header at address and loads its data segment.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	head, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading local heap: %w", err)
	}
	if string(head[:4]) != "HEAP" {
		return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSignature, head[:4], address)
	}
	if head[4] != 0 {
		return nil, fmt.Errorf("unsupported local heap version %d", head[4])
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	// free list head
	if _, err := hr.ReadLength(); err != nil {
		return nil, err
	}
	dataAddr, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}
	data, err := r.At(int64(dataAddr)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading local heap data segment: %w", err)
	}
	return &LocalHeap{Address: address, DataAddress: dataAddr, data: data}, nil
}

// String returns the NUL-terminated string at offset.
func (h *LocalHeap) String(offset uint64) (string, error) {
	if offset >= uint64(len(h.data)) {
		return "", fmt.Errorf("%w: %d of %d", ErrBadOffset, offset, len(h.data))
	}
	rest := h.data[offset:]
	for i, b := range rest {
		if b == 0 {
			return string(rest[:i]), nil
		}
	}
	return string(rest), nil
}
