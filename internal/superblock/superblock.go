package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-gctx/internal/binary"
)

// Signature is the 8-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
	ErrChecksumMismatch   = errors.New("superblock checksum mismatch")
)

// Superblock holds the fields needed to navigate the file.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	// Location is the absolute file position of the signature.
	Location int64

	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64
	RootGroupAddress uint64

	// Version 0/1 only.
	GroupLeafNodeK     uint16
	GroupInternalNodeK uint16
	IndexedStorageK    uint16
	RootBTreeAddress   uint64
	RootHeapAddress    uint64
	// RootCacheType is 1 when the root scratch pad holds the addresses above.
	RootCacheType uint32
}

// Read finds and parses the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, len(Signature)+1)
	for _, off := range searchOffsets {
		n, err := r.ReadAt(sig, off)
		if n < len(sig) {
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading signature at %d: %w", off, err)
		}
		if !bytes.Equal(sig[:8], Signature) {
			continue
		}

		var sb *Superblock
		switch version := sig[8]; version {
		case 0, 1:
			sb, err = readV0(r, off, version)
		case 2, 3:
			sb, err = readV2(r, off, version)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		if err != nil {
			return nil, err
		}
		sb.Location = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the binary reader configuration for this file.
// HDF5 metadata is always little-endian.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

func readV0(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 24)
	if _, err := r.ReadAt(fixed, off); err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", version, err)
	}
	sb := &Superblock{
		Version:            version,
		OffsetSize:         fixed[13],
		LengthSize:         fixed[14],
		GroupLeafNodeK:     binary.LittleEndian.Uint16(fixed[16:18]),
		GroupInternalNodeK: binary.LittleEndian.Uint16(fixed[18:20]),
	}
	if err := sb.ReaderConfig().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	br := binpkg.NewReader(r, sb.ReaderConfig()).At(off + 24)
	if version == 1 {
		k, err := br.ReadUint16()
		if err != nil {
			return nil, err
		}
		sb.IndexedStorageK = k
		br.Skip(2)
	}

	var err error
	if sb.BaseAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.ExtensionAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	// Driver information block.
	if _, err = br.ReadOffset(); err != nil {
		return nil, err
	}

	// Root group symbol table entry: link name offset, header address,
	// cache type, reserved, 16-byte scratch pad.
	if _, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootGroupAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootCacheType, err = br.ReadUint32(); err != nil {
		return nil, err
	}
	br.Skip(4)
	if sb.RootCacheType == 1 {
		if sb.RootBTreeAddress, err = br.ReadOffset(); err != nil {
			return nil, err
		}
		if sb.RootHeapAddress, err = br.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return sb, nil
}

func readV2(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	head := make([]byte, 12)
	if _, err := r.ReadAt(head, off); err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", version, err)
	}
	sb := &Superblock{
		Version:    version,
		OffsetSize: head[9],
		LengthSize: head[10],
	}
	if err := sb.ReaderConfig().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	size := 12 + 4*int(sb.OffsetSize)
	buf := make([]byte, size+4)
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", version, err)
	}
	stored := binary.LittleEndian.Uint32(buf[size:])
	if got := binpkg.Lookup3(buf[:size]); got != stored {
		return nil, fmt.Errorf("%w: stored %#08x, computed %#08x", ErrChecksumMismatch, stored, got)
	}

	o := int(sb.OffsetSize)
	field := func(i int) uint64 {
		start := 12 + i*o
		return binpkg.DecodeUint(buf[start:start+o], binary.LittleEndian)
	}
	sb.BaseAddress = field(0)
	sb.ExtensionAddress = field(1)
	sb.EOFAddress = field(2)
	sb.RootGroupAddress = field(3)
	return sb, nil
}
