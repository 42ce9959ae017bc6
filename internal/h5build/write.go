package h5build

import (
	"fmt"
	"math"
	"math/bits"
	pathpkg "path"

	"github.com/robert-malhotra/go-gctx/internal/alloc"
	binpkg "github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/btree"
	"github.com/robert-malhotra/go-gctx/internal/filter"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

const (
	superblockSize = 48

	// fixedArrayPageBits matches the HDF5 library default: data blocks
	// with more than 1024 entries are paged.
	fixedArrayPageBits = 10

	// minHeapSize is the smallest global heap collection HDF5 writes.
	minHeapSize = 4096
)

var signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// Image is an encoded file.
type Image struct {
	Bytes []byte
	// Root is the address of the root group's object header.
	Root  uint64
	space *alloc.Allocator
}

// Regions lists every structure in the file in address order.
func (im *Image) Regions() []alloc.Region { return im.space.Regions() }

// Describe names the structure holding addr.
func (im *Image) Describe(addr uint64) string {
	if r, ok := im.space.Find(addr); ok {
		return r.String()
	}
	return fmt.Sprintf("unallocated address %d", addr)
}

// Build encodes the file. Children are written before their parents so
// every address is known when a header is encoded; the superblock is
// filled in last.
func (f *File) Build() (*Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	w := &writer{space: alloc.New(0)}
	w.space.Alloc(superblockSize, "superblock")
	w.grow(superblockSize)

	root, err := w.group(f.root, "/")
	if err != nil {
		return nil, err
	}
	eof := w.space.EOF()
	w.grow(eof)

	b := newBuffer()
	b.PutBytes(signature)
	b.PutUint8(2)
	b.PutUint8(offsetSize)
	b.PutUint8(lengthSize)
	b.PutUint8(0)
	b.PutOffset(0)
	b.PutUndefined()
	b.PutOffset(eof)
	b.PutOffset(root)
	b.PutUint32(binpkg.Lookup3(b.Bytes()))
	w.writeAt(0, b.Bytes())

	return &Image{Bytes: w.image, Root: root, space: w.space}, nil
}

type writer struct {
	space *alloc.Allocator
	image []byte
}

func (w *writer) grow(n uint64) {
	if uint64(len(w.image)) < n {
		w.image = append(w.image, make([]byte, n-uint64(len(w.image)))...)
	}
}

func (w *writer) writeAt(addr uint64, p []byte) {
	w.grow(addr + uint64(len(p)))
	copy(w.image[addr:], p)
}

// place allocates room for p and writes it there.
func (w *writer) place(p []byte, tag string) uint64 {
	addr := w.space.Alloc(uint64(len(p)), tag)
	w.writeAt(addr, p)
	return addr
}

type headerMessage struct {
	typ   message.Type
	flags uint8
	body  []byte
}

// header writes a version 2 object header holding msgs.
func (w *writer) header(msgs []headerMessage, path string) (uint64, error) {
	size := 0
	for _, m := range msgs {
		if len(m.body) > math.MaxUint16 {
			return 0, fmt.Errorf("%w: %s: message type %#02x of %d bytes", ErrInvalid, path, uint16(m.typ), len(m.body))
		}
		size += 4 + len(m.body)
	}
	var flags uint8
	width := 1
	switch {
	case size > math.MaxUint16:
		flags, width = 2, 4
	case size > math.MaxUint8:
		flags, width = 1, 2
	}

	b := newBuffer()
	b.PutBytes([]byte("OHDR"))
	b.PutUint8(2)
	b.PutUint8(flags)
	b.PutUintN(uint64(size), width)
	for _, m := range msgs {
		b.PutUint8(uint8(m.typ))
		b.PutUint16(uint16(len(m.body)))
		b.PutUint8(m.flags)
		b.PutBytes(m.body)
	}
	b.PutUint32(binpkg.Lookup3(b.Bytes()))
	return w.place(b.Bytes(), "OHDR "+path), nil
}

func (w *writer) group(g *Group, path string) (uint64, error) {
	info := newBuffer()
	info.PutUint8(0)
	info.PutUint8(0)
	info.PutUndefined()
	info.PutUndefined()
	msgs := []headerMessage{
		{typ: message.TypeLinkInfo, body: info.Bytes()},
		{typ: message.TypeGroupInfo, body: []byte{0, 0}},
	}

	for _, m := range g.members {
		child := pathpkg.Join(path, m.name)
		switch {
		case m.group != nil:
			addr, err := w.group(m.group, child)
			if err != nil {
				return 0, err
			}
			msgs = append(msgs, headerMessage{typ: message.TypeLink, body: link(m.name, addr, "")})
		case m.dataset != nil:
			addr, err := w.dataset(m.dataset, child)
			if err != nil {
				return 0, err
			}
			msgs = append(msgs, headerMessage{typ: message.TypeLink, body: link(m.name, addr, "")})
		default:
			msgs = append(msgs, headerMessage{typ: message.TypeLink, body: link(m.name, 0, m.target)})
		}
	}

	attrs, err := w.attributes(g.attrs, path)
	if err != nil {
		return 0, err
	}
	return w.header(append(msgs, attrs...), path)
}

// link encodes a hard link to addr, or a soft link when target is set.
func link(name string, addr uint64, target string) []byte {
	var flags uint8
	if len(name) > math.MaxUint8 {
		flags = 0x01
	}
	if target != "" {
		flags |= 0x08
	}
	b := newBuffer()
	b.PutUint8(1)
	b.PutUint8(flags)
	if target != "" {
		b.PutUint8(uint8(message.LinkSoft))
	}
	b.PutUintN(uint64(len(name)), 1<<(flags&0x03))
	b.PutBytes([]byte(name))
	if target != "" {
		b.PutUint16(uint16(len(target)))
		b.PutBytes([]byte(target))
	} else {
		b.PutOffset(addr)
	}
	return b.Bytes()
}

func (w *writer) attributes(attrs []*attribute, path string) ([]headerMessage, error) {
	var out []headerMessage
	for _, a := range attrs {
		where := path + "@" + a.name
		el, err := encodeValue(a.value, a.spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		raw, err := w.raw(el, where)
		if err != nil {
			return nil, err
		}
		var shape []uint64
		if !el.scalar {
			shape = []uint64{uint64(el.n)}
		}
		space := dataspace(shape, el.scalar)

		b := newBuffer()
		b.PutUint8(3)
		b.PutUint8(0)
		b.PutUint16(uint16(len(a.name) + 1))
		b.PutUint16(uint16(len(el.datatype)))
		b.PutUint16(uint16(len(space)))
		b.PutUint8(1)
		b.PutBytes([]byte(a.name))
		b.PutUint8(0)
		b.PutBytes(el.datatype)
		b.PutBytes(space)
		b.PutBytes(raw)
		out = append(out, headerMessage{typ: message.TypeAttribute, body: b.Bytes()})
	}
	return out, nil
}

// raw returns the stored element bytes, writing a global heap collection
// first for variable-length strings.
func (w *writer) raw(el *elements, tag string) ([]byte, error) {
	if el.strs == nil {
		return el.raw, nil
	}
	if len(el.strs) >= math.MaxUint16 {
		return nil, fmt.Errorf("%w: %s: %d strings do not fit one heap collection", ErrInvalid, tag, len(el.strs))
	}

	b := newBuffer()
	b.PutBytes([]byte("GCOL"))
	b.PutUint8(1)
	b.PutZeros(3)
	sizeAt := b.Len()
	b.PutLength(0)

	index := make([]uint32, len(el.strs))
	next := uint16(1)
	for i, s := range el.strs {
		if s == "" {
			continue
		}
		index[i] = uint32(next)
		b.PutUint16(next)
		b.PutUint16(1)
		b.PutZeros(4)
		b.PutLength(uint64(len(s)))
		b.PutBytes([]byte(s))
		b.Align(8)
		next++
	}
	// Free space runs to the end of the collection as object 0.
	if free := minHeapSize - b.Len(); free >= 16 {
		b.PutUint16(0)
		b.PutZeros(6)
		b.PutLength(uint64(free))
		b.PutZeros(free - 16)
	}
	b.PatchLength(sizeAt, uint64(b.Len()))
	addr := w.place(b.Bytes(), "GCOL "+tag)

	refs := newBuffer()
	for i, s := range el.strs {
		refs.PutUint32(uint32(len(s)))
		refs.PutOffset(addr)
		refs.PutUint32(index[i])
	}
	return refs.Bytes(), nil
}

func (w *writer) dataset(d *Dataset, path string) (uint64, error) {
	el, err := encodeValue(d.values, d.spec)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	shape := d.shape
	switch {
	case el.scalar && shape != nil:
		return 0, fmt.Errorf("%w: %s: scalar value with shape %v", ErrInvalid, path, shape)
	case shape == nil && !el.scalar:
		shape = []uint64{uint64(el.n)}
	}
	if n := count(shape); n != uint64(el.n) {
		return 0, fmt.Errorf("%w: %s: shape %v holds %d elements, got %d", ErrInvalid, path, shape, n, el.n)
	}
	raw, err := w.raw(el, path)
	if err != nil {
		return 0, err
	}

	msgs := []headerMessage{
		{typ: message.TypeDataspace, body: dataspace(shape, el.scalar)},
		{typ: message.TypeDatatype, flags: 0x01, body: el.datatype},
		// Late allocation, fill written if set, no fill value defined.
		{typ: message.TypeFillValue, flags: 0x01, body: []byte{3, 0x02 | 0x02<<2}},
	}

	s := d.spec
	switch {
	case s.chunks != nil:
		if s.compact {
			return 0, fmt.Errorf("%w: %s: compact and chunked", ErrInvalid, path)
		}
		lay, pipeline, err := w.chunked(s, shape, el.size, raw, path)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, headerMessage{typ: message.TypeDataLayout, body: lay})
		if pipeline != nil {
			msgs = append(msgs, headerMessage{typ: message.TypeFilterPipeline, flags: 0x01, body: pipeline})
		}
	case len(s.filters) > 0:
		return 0, fmt.Errorf("%w: %s: filters need chunked storage", ErrInvalid, path)
	case s.compact:
		b := newBuffer()
		b.PutUint8(3)
		b.PutUint8(uint8(message.LayoutCompact))
		b.PutUint16(uint16(len(raw)))
		b.PutBytes(raw)
		msgs = append(msgs, headerMessage{typ: message.TypeDataLayout, body: b.Bytes()})
	default:
		b := newBuffer()
		b.PutUint8(3)
		b.PutUint8(uint8(message.LayoutContiguous))
		if len(raw) == 0 {
			b.PutUndefined()
		} else {
			addr := w.space.AllocAligned(uint64(len(raw)), 8, "data "+path)
			w.writeAt(addr, raw)
			b.PutOffset(addr)
		}
		b.PutLength(uint64(len(raw)))
		msgs = append(msgs, headerMessage{typ: message.TypeDataLayout, body: b.Bytes()})
	}

	attrs, err := w.attributes(d.attrs, path)
	if err != nil {
		return 0, err
	}
	return w.header(append(msgs, attrs...), path)
}

func count(shape []uint64) uint64 {
	n := uint64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

type storedChunk struct {
	addr, size uint64
}

// chunked writes every chunk through the filters and indexes them with a
// fixed array. It returns the layout and filter pipeline message bodies.
func (w *writer) chunked(s spec, shape []uint64, elem int, raw []byte, path string) ([]byte, []byte, error) {
	if len(s.chunks) != len(shape) || len(shape) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: chunk shape %v for dataset shape %v", ErrInvalid, path, s.chunks, shape)
	}
	for _, c := range s.chunks {
		if c == 0 {
			return nil, nil, fmt.Errorf("%w: %s: zero chunk dimension", ErrInvalid, path)
		}
	}

	var fp *message.FilterPipeline
	var pipeline []byte
	if len(s.filters) > 0 {
		fp = &message.FilterPipeline{Version: 2}
		for _, f := range s.filters {
			if f.ID == message.FilterShuffle {
				f.ClientData = []uint32{uint32(elem)}
			}
			fp.Filters = append(fp.Filters, f)
		}
		pipeline = filterPipeline(fp)
	}
	p, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	grid := btree.Grid{Dims: shape, Chunk: s.chunks}
	chunkBytes := uint64(elem) * count(s.chunks)
	index := binpkg.Undefined(offsetSize)
	if len(raw) > 0 {
		chunks := make([]storedChunk, grid.Total())
		for n := range chunks {
			data := gatherChunk(raw, shape, s.chunks, grid.Offset(uint64(n)), elem)
			if data, err = p.Encode(data); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", path, err)
			}
			addr := w.place(data, fmt.Sprintf("chunk %d %s", n, path))
			chunks[n] = storedChunk{addr: addr, size: uint64(len(data))}
		}
		index = w.fixedArray(chunks, fp != nil, chunkBytes, path)
	}

	dims := append(append([]uint64(nil), s.chunks...), uint64(elem))
	width := 1
	for _, d := range dims {
		width = max(width, (bits.Len64(d)+7)/8)
	}
	b := newBuffer()
	b.PutUint8(4)
	b.PutUint8(uint8(message.LayoutChunked))
	b.PutUint8(0)
	b.PutUint8(uint8(len(dims)))
	b.PutUint8(uint8(width))
	for _, d := range dims {
		b.PutUintN(d, width)
	}
	b.PutUint8(uint8(message.IndexFixedArray))
	b.PutUint8(fixedArrayPageBits)
	b.PutOffset(index)
	return b.Bytes(), pipeline, nil
}

func filterPipeline(fp *message.FilterPipeline) []byte {
	b := newBuffer()
	b.PutUint8(2)
	b.PutUint8(uint8(len(fp.Filters)))
	for _, f := range fp.Filters {
		b.PutUint16(f.ID)
		if f.ID >= 256 {
			b.PutUint16(0)
		}
		b.PutUint16(f.Flags)
		b.PutUint16(uint16(len(f.ClientData)))
		for _, v := range f.ClientData {
			b.PutUint32(v)
		}
	}
	return b.Bytes()
}

// gatherChunk copies the elements of the chunk at origin out of the
// row-major raw data. Parts of edge chunks beyond the dataset are zero.
func gatherChunk(raw []byte, dims, chunk, origin []uint64, elem int) []byte {
	e := uint64(elem)
	out := make([]byte, count(chunk)*e)
	last := len(dims) - 1
	row := min(chunk[last], dims[last]-origin[last])
	idx := make([]uint64, last)
	for {
		inside := true
		var src, dst uint64
		for d := 0; d < last; d++ {
			x := origin[d] + idx[d]
			if x >= dims[d] {
				inside = false
				break
			}
			src = src*dims[d] + x
			dst = dst*chunk[d] + idx[d]
		}
		if inside {
			src = src*dims[last] + origin[last]
			dst *= chunk[last]
			copy(out[dst*e:], raw[src*e:(src+row)*e])
		}

		d := last - 1
		for ; d >= 0; d-- {
			if idx[d]++; idx[d] < chunk[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return out
		}
	}
}

// fixedArray writes the chunk index and returns its header address.
func (w *writer) fixedArray(chunks []storedChunk, filtered bool, chunkBytes uint64, path string) uint64 {
	var client uint8
	entry, width := offsetSize, 0
	if filtered {
		client = 1
		width = sizeWidth(chunkBytes, chunks)
		entry += width + 4
	}
	put := func(b *binpkg.Buffer, c storedChunk) {
		b.PutOffset(c.addr)
		if filtered {
			b.PutUintN(c.size, width)
			b.PutUint32(0)
		}
	}

	hdr := w.space.Alloc(8+lengthSize+offsetSize+4, "FAHD "+path)

	b := newBuffer()
	b.PutBytes([]byte("FADB"))
	b.PutUint8(0)
	b.PutUint8(client)
	b.PutOffset(hdr)
	pageLen := 1 << fixedArrayPageBits
	if len(chunks) <= pageLen {
		for _, c := range chunks {
			put(b, c)
		}
		b.PutUint32(binpkg.Lookup3(b.Bytes()))
	} else {
		npages := (len(chunks) + pageLen - 1) / pageLen
		bitmap := make([]byte, (npages+7)/8)
		for p := 0; p < npages; p++ {
			bitmap[p/8] |= 0x80 >> (p % 8)
		}
		b.PutBytes(bitmap)
		b.PutUint32(binpkg.Lookup3(b.Bytes()))
		for start := 0; start < len(chunks); start += pageLen {
			page := newBuffer()
			for _, c := range chunks[start:min(start+pageLen, len(chunks))] {
				put(page, c)
			}
			page.PutUint32(binpkg.Lookup3(page.Bytes()))
			b.PutBytes(page.Bytes())
		}
	}
	block := w.place(b.Bytes(), "FADB "+path)

	h := newBuffer()
	h.PutBytes([]byte("FAHD"))
	h.PutUint8(0)
	h.PutUint8(client)
	h.PutUint8(uint8(entry))
	h.PutUint8(fixedArrayPageBits)
	h.PutLength(uint64(len(chunks)))
	h.PutOffset(block)
	h.PutUint32(binpkg.Lookup3(h.Bytes()))
	w.writeAt(hdr, h.Bytes())
	return hdr
}

// sizeWidth is the byte width of a filtered chunk size entry: what the
// HDF5 library derives from the chunk size, widened if a filtered chunk
// came out larger.
func sizeWidth(chunkBytes uint64, chunks []storedChunk) int {
	width := min(1+(bits.Len64(chunkBytes)-1+8)/8, 8)
	for _, c := range chunks {
		for width < 8 && c.size>>(8*uint(width)) != 0 {
			width++
		}
	}
	return width
}
