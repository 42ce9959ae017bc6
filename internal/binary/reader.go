// Package binary provides the positioned readers and encoders used to walk
// HDF5 structures, where offsets and lengths have a per-file width.
package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when an offset or length width is not 2, 4 or 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// Config holds the widths and byte order negotiated by the superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is used to read the superblock itself.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Validate reports whether the widths are usable.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return fmt.Errorf("%w: got %d", ErrInvalidSize, n)
		}
	}
	return nil
}

// Reader reads HDF5 fields from an io.ReaderAt starting at a position.
// Readers are cheap to copy; At returns an independent cursor.
type Reader struct {
	src io.ReaderAt
	cfg Config
	pos int64
}

// NewReader creates a reader positioned at 0.
func NewReader(src io.ReaderAt, cfg Config) *Reader {
	return &Reader{src: src, cfg: cfg}
}

// At returns a new reader over the same source positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{src: r.src, cfg: r.cfg, pos: offset}
}

// Sub returns a reader over an in-memory message body with the same
// configuration, positioned at 0.
func (r *Reader) Sub(data []byte) *Reader {
	return &Reader{src: bytes.NewReader(data), cfg: r.cfg}
}

// Source returns the underlying io.ReaderAt.
func (r *Reader) Source() io.ReaderAt { return r.src }

// Config returns the reader configuration.
func (r *Reader) Config() Config { return r.cfg }

// Pos returns the current position.
func (r *Reader) Pos() int64 { return r.pos }

// ReadBytes reads exactly n bytes and advances.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without advancing.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.src.ReadAt(buf, r.pos)
	if got == n {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, err)
}

func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.cfg.ByteOrder.Uint16(buf), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.cfg.ByteOrder.Uint32(buf), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.cfg.ByteOrder.Uint64(buf), nil
}

// ReadUintN reads an unsigned integer stored in n bytes (1 to 8).
func (r *Reader) ReadUintN(n int) (uint64, error) {
	if n < 1 || n > 8 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidSize, n)
	}
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return DecodeUint(buf, r.cfg.ByteOrder), nil
}

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.cfg.OffsetSize)
}

// ReadLength reads a length field.
func (r *Reader) ReadLength() (uint64, error) {
	return r.ReadUintN(r.cfg.LengthSize)
}

// IsUndefinedOffset reports whether offset is the all-ones "undefined address".
func (r *Reader) IsUndefinedOffset(offset uint64) bool {
	return offset == Undefined(r.cfg.OffsetSize)
}

// Skip advances by n bytes.
func (r *Reader) Skip(n int64) { r.pos += n }

// Align advances to the next multiple of alignment.
func (r *Reader) Align(alignment int64) {
	if alignment <= 1 {
		return
	}
	if rem := r.pos % alignment; rem != 0 {
		r.pos += alignment - rem
	}
}

func (r *Reader) OffsetSize() int               { return r.cfg.OffsetSize }
func (r *Reader) LengthSize() int               { return r.cfg.LengthSize }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.cfg.ByteOrder }

// ReadCString reads a NUL-terminated string of at most max bytes.
func (r *Reader) ReadCString(max int) (string, error) {
	var out []byte
	for len(out) < max {
		b, err := r.ReadUint8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
	return string(out), nil
}

// Undefined returns the undefined address for an offset width.
func Undefined(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(uint(size)*8) - 1
}

// DecodeUint decodes an unsigned integer of len(buf) bytes.
func DecodeUint(buf []byte, order binary.ByteOrder) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	}
	var v uint64
	if order == binary.BigEndian {
		for _, b := range buf {
			v = v<<8 | uint64(b)
		}
		return v
	}
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}
