package binary

// Buffer is an append-only encoder for HDF5 fields. Addresses inside the
// buffer are byte positions, so a Buffer holding a whole file can patch
// forward references once their targets are placed.
type Buffer struct {
	cfg Config
	buf []byte
}

// NewBuffer returns an empty buffer using cfg widths and byte order.
func NewBuffer(cfg Config) *Buffer {
	return &Buffer{cfg: cfg}
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.buf) }

// Bytes returns the encoded bytes.
func (b *Buffer) Bytes() []byte { return b.buf }

// Config returns the encoder configuration.
func (b *Buffer) Config() Config { return b.cfg }

func (b *Buffer) PutUint8(v uint8) { b.buf = append(b.buf, v) }

func (b *Buffer) PutUint16(v uint16) {
	var tmp [2]byte
	b.cfg.ByteOrder.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Buffer) PutUint32(v uint32) {
	var tmp [4]byte
	b.cfg.ByteOrder.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Buffer) PutUint64(v uint64) {
	var tmp [8]byte
	b.cfg.ByteOrder.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// PutUintN writes v in n bytes.
func (b *Buffer) PutUintN(v uint64, n int) {
	var tmp [8]byte
	b.cfg.ByteOrder.PutUint64(tmp[:], v)
	if b.cfg.ByteOrder.String() == "BigEndian" {
		b.buf = append(b.buf, tmp[8-n:]...)
		return
	}
	b.buf = append(b.buf, tmp[:n]...)
}

func (b *Buffer) PutOffset(v uint64) { b.PutUintN(v, b.cfg.OffsetSize) }

func (b *Buffer) PutLength(v uint64) { b.PutUintN(v, b.cfg.LengthSize) }

// PutUndefined writes the undefined address.
func (b *Buffer) PutUndefined() { b.PutOffset(Undefined(b.cfg.OffsetSize)) }

func (b *Buffer) PutBytes(p []byte) { b.buf = append(b.buf, p...) }

// PutZeros writes n zero bytes.
func (b *Buffer) PutZeros(n int) {
	for ; n > 0; n-- {
		b.buf = append(b.buf, 0)
	}
}

// Align pads with zeros to a multiple of n.
func (b *Buffer) Align(n int) {
	if rem := len(b.buf) % n; rem != 0 {
		b.PutZeros(n - rem)
	}
}

// PatchUint32 overwrites four bytes at pos.
func (b *Buffer) PatchUint32(pos int, v uint32) {
	b.cfg.ByteOrder.PutUint32(b.buf[pos:], v)
}

// PatchOffset overwrites an address field at pos.
func (b *Buffer) PatchOffset(pos int, v uint64) { b.patchUintN(pos, v, b.cfg.OffsetSize) }

// PatchLength overwrites a length field at pos.
func (b *Buffer) PatchLength(pos int, v uint64) { b.patchUintN(pos, v, b.cfg.LengthSize) }

func (b *Buffer) patchUintN(pos int, v uint64, n int) {
	var tmp [8]byte
	b.cfg.ByteOrder.PutUint64(tmp[:], v)
	if b.cfg.ByteOrder.String() == "BigEndian" {
		copy(b.buf[pos:pos+n], tmp[8-n:])
		return
	}
	copy(b.buf[pos:pos+n], tmp[:n])
}
