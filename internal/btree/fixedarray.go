package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Fixed array client ids.
const (
	clientChunks         = 0
	clientFilteredChunks = 1
)

// ReadFixedArray returns the allocated chunks of a fixed array chunk index.
// Entries are in row-major chunk order; unallocated chunks are omitted.
func ReadFixedArray(r *binary.Reader, address uint64, grid Grid) ([]Chunk, error) {
	hr := r.At(int64(address))
	size := 8 + r.LengthSize() + r.OffsetSize()
	raw, err := hr.ReadBytes(size + 4)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array header: %w", err)
	}
	if string(raw[:4]) != "FAHD" {
		return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSignature, raw[:4], address)
	}
	if err := verify(r, raw, address); err != nil {
		return nil, err
	}
	client, entrySize, pageBits := raw[5], int(raw[6]), uint(raw[7])
	hdr := r.Sub(raw[8:size])
	nentries, err := hdr.ReadLength()
	if err != nil {
		return nil, err
	}
	blockAddr, err := hdr.ReadOffset()
	if err != nil {
		return nil, err
	}
	if client > clientFilteredChunks {
		return nil, fmt.Errorf("fixed array client %d not supported", client)
	}
	if r.IsUndefinedOffset(blockAddr) {
		return nil, nil
	}

	entries, err := readFixedArrayBlock(r, blockAddr, int(nentries), entrySize, pageBits)
	if err != nil {
		return nil, err
	}

	var out []Chunk
	for i, e := range entries {
		er := r.Sub(e)
		addr, err := er.ReadOffset()
		if err != nil {
			return nil, err
		}
		if r.IsUndefinedOffset(addr) {
			continue
		}
		c := Chunk{Address: addr, Offset: grid.Offset(uint64(i))}
		if client == clientFilteredChunks {
			width := entrySize - r.OffsetSize() - 4
			if c.Size, err = er.ReadUintN(width); err != nil {
				return nil, err
			}
			if c.FilterMask, err = er.ReadUint32(); err != nil {
				return nil, err
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// readFixedArrayBlock returns the raw entries of the data block. Blocks
// with more than 2^pageBits entries are split into checksummed pages
// preceded by a bitmap of initialized pages.
func readFixedArrayBlock(r *binary.Reader, address uint64, n, entrySize int, pageBits uint) ([][]byte, error) {
	prefix := 6 + r.OffsetSize()
	pageLen := 1 << pageBits
	paged := n > pageLen

	if !paged {
		raw, err := r.At(int64(address)).ReadBytes(prefix + n*entrySize + 4)
		if err != nil {
			return nil, fmt.Errorf("reading fixed array data block: %w", err)
		}
		if err := checkBlock(r, raw, address); err != nil {
			return nil, err
		}
		return split(raw[prefix:prefix+n*entrySize], entrySize), nil
	}

	npages := (n + pageLen - 1) / pageLen
	bitmapLen := (npages + 7) / 8
	raw, err := r.At(int64(address)).ReadBytes(prefix + bitmapLen + 4)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array data block: %w", err)
	}
	if err := checkBlock(r, raw, address); err != nil {
		return nil, err
	}
	bitmap := raw[prefix : prefix+bitmapLen]

	out := make([][]byte, 0, n)
	pos := int64(address) + int64(len(raw))
	for p := 0; p < npages; p++ {
		count := pageLen
		if rem := n - p*pageLen; rem < count {
			count = rem
		}
		pageSize := count*entrySize + 4
		// Bitmap bits are numbered from the most significant bit.
		if bitmap[p/8]&(0x80>>(uint(p)%8)) == 0 {
			for i := 0; i < count; i++ {
				out = append(out, undefinedEntry(r, entrySize))
			}
			pos += int64(pageSize)
			continue
		}
		page, err := r.At(pos).ReadBytes(pageSize)
		if err != nil {
			return nil, fmt.Errorf("reading fixed array page %d: %w", p, err)
		}
		if err := verify(r, page, uint64(pos)); err != nil {
			return nil, err
		}
		out = append(out, split(page[:count*entrySize], entrySize)...)
		pos += int64(pageSize)
	}
	return out, nil
}

func checkBlock(r *binary.Reader, raw []byte, address uint64) error {
	if string(raw[:4]) != "FADB" {
		return fmt.Errorf("%w: %q at %d", ErrInvalidSignature, raw[:4], address)
	}
	return verify(r, raw, address)
}

// verify checks the trailing lookup3 checksum of raw.
func verify(r *binary.Reader, raw []byte, address uint64) error {
	body := len(raw) - 4
	if binary.Lookup3(raw[:body]) != r.ByteOrder().Uint32(raw[body:]) {
		return fmt.Errorf("%w: structure at %d", ErrChecksumMismatch, address)
	}
	return nil
}

func split(raw []byte, size int) [][]byte {
	out := make([][]byte, 0, len(raw)/size)
	for i := 0; i+size <= len(raw); i += size {
		out = append(out, raw[i:i+size])
	}
	return out
}

func undefinedEntry(r *binary.Reader, size int) []byte {
	e := make([]byte, size)
	for i := 0; i < r.OffsetSize(); i++ {
		e[i] = 0xFF
	}
	return e
}
