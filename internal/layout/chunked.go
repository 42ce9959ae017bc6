package layout

import (
	"fmt"
	"slices"
	"sync"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/btree"
	"github.com/robert-malhotra/go-gctx/internal/filter"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Chunked serves elements stored in chunks. Chunks that were never
// written read as the fill value.
type Chunked struct {
	shape
	r        *binary.Reader
	msg      *message.DataLayout
	grid     btree.Grid
	pipeline *filter.Pipeline
	cache    *ChunkCache
	obs      Observer

	once     sync.Once
	index    map[uint64]btree.Chunk
	indexErr error
}

func newChunked(r *binary.Reader, s shape, src Source, o options) (*Chunked, error) {
	l := src.Layout
	if len(l.ChunkDims) != len(s.dims) {
		return nil, fmt.Errorf("%w: chunk rank %d, dataset rank %d", ErrCorrupt, len(l.ChunkDims), len(s.dims))
	}
	if slices.Contains(l.ChunkDims, 0) {
		return nil, fmt.Errorf("%w: zero chunk dimension in %v", ErrCorrupt, l.ChunkDims)
	}
	switch l.Index {
	case message.IndexBTreeV1, message.IndexSingleChunk, message.IndexImplicit, message.IndexFixedArray:
	default:
		return nil, fmt.Errorf("%w: %s chunk index", ErrUnsupported, l.Index)
	}
	p, err := filter.NewPipeline(src.Filters)
	if err != nil {
		return nil, err
	}
	return &Chunked{
		shape:    s,
		r:        r,
		msg:      l,
		grid:     btree.Grid{Dims: s.dims, Chunk: l.ChunkDims},
		pipeline: p,
		cache:    o.cache,
		obs:      o.observer,
	}, nil
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

// ChunkDims returns the chunk shape.
func (c *Chunked) ChunkDims() []uint64 { return c.grid.Chunk }

func (c *Chunked) chunkBytes() uint64 {
	n := uint64(c.elem)
	for _, d := range c.grid.Chunk {
		n *= d
	}
	return n
}

// number returns the row-major position of the chunk at chunk coordinates.
func (c *Chunked) number(coord []uint64, counts []uint64) uint64 {
	var n uint64
	for d, k := range coord {
		n = n*counts[d] + k
	}
	return n
}

func (c *Chunked) loadIndex() (map[uint64]btree.Chunk, error) {
	c.once.Do(func() {
		chunks, err := c.readIndex()
		if err != nil {
			c.indexErr = fmt.Errorf("reading %s chunk index: %w", c.msg.Index, err)
			return
		}
		counts := c.grid.Counts()
		coord := make([]uint64, len(counts))
		c.index = make(map[uint64]btree.Chunk, len(chunks))
		for _, ch := range chunks {
			for d := range coord {
				coord[d] = ch.Offset[d] / c.grid.Chunk[d]
			}
			c.index[c.number(coord, counts)] = ch
		}
	})
	return c.index, c.indexErr
}

func (c *Chunked) readIndex() ([]btree.Chunk, error) {
	addr := c.msg.Address
	if c.r.IsUndefinedOffset(addr) {
		return nil, nil
	}
	switch c.msg.Index {
	case message.IndexBTreeV1:
		return btree.ReadChunksV1(c.r, addr, len(c.dims))
	case message.IndexSingleChunk:
		ch := btree.Chunk{Offset: make([]uint64, len(c.dims)), Address: addr, Size: c.chunkBytes()}
		if c.msg.Flags&0x02 != 0 {
			ch.Size, ch.FilterMask = c.msg.FilteredSize, c.msg.FilterMask
		}
		return []btree.Chunk{ch}, nil
	case message.IndexImplicit:
		total, size := c.grid.Total(), c.chunkBytes()
		out := make([]btree.Chunk, total)
		for n := range out {
			out[n] = btree.Chunk{Offset: c.grid.Offset(uint64(n)), Address: addr + uint64(n)*size, Size: size}
		}
		return out, nil
	default:
		return btree.ReadFixedArray(c.r, addr, c.grid)
	}
}

// decode returns the unfiltered bytes of ch.
func (c *Chunked) decode(ch btree.Chunk) ([]byte, error) {
	if c.cache != nil {
		data, ok := c.cache.get(ch.Address)
		c.obs.CacheLookup(ok)
		if ok {
			return data, nil
		}
	}
	want := c.chunkBytes()
	size := ch.Size
	if size == 0 {
		size = want
	}
	data, err := c.r.At(int64(ch.Address)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk %v: %w", ch.Offset, err)
	}
	c.obs.BytesRead(len(data))
	if !c.pipeline.Empty() {
		stored := len(data)
		if data, err = c.pipeline.Decode(data, ch.FilterMask); err != nil {
			return nil, fmt.Errorf("chunk %v: %w", ch.Offset, err)
		}
		c.obs.ChunkDecoded(stored, len(data))
	}
	if uint64(len(data)) < want {
		return nil, fmt.Errorf("%w: chunk %v holds %d bytes, need %d", ErrCorrupt, ch.Offset, len(data), want)
	}
	c.cache.add(ch.Address, data)
	return data, nil
}

func (c *Chunked) Read() ([]byte, error) {
	return c.ReadSelection(All(c.dims))
}

// hit maps one selected coordinate to its position in the output and
// inside its chunk.
type hit struct {
	out, in uint64
}

// ReadSelection decodes only the chunks that hold selected elements.
func (c *Chunked) ReadSelection(sel Selection) ([]byte, error) {
	if err := sel.validate(c.dims); err != nil {
		return nil, err
	}
	out := c.output(sel.Len())
	if len(out) == 0 {
		return out, nil
	}
	index, err := c.loadIndex()
	if err != nil {
		return nil, err
	}

	rank := len(sel)
	hits := make([]map[uint64][]hit, rank)
	touched := make([][]uint64, rank)
	for d, coords := range sel {
		hits[d] = make(map[uint64][]hit)
		for i, x := range coords {
			k := x / c.grid.Chunk[d]
			if _, ok := hits[d][k]; !ok {
				touched[d] = append(touched[d], k)
			}
			hits[d][k] = append(hits[d][k], hit{out: uint64(i), in: x - k*c.grid.Chunk[d]})
		}
		slices.Sort(touched[d])
	}

	counts := c.grid.Counts()
	inStrides := strides(c.grid.Chunk, c.elem)
	outStrides := strides(sel.Shape(), c.elem)
	elem := uint64(c.elem)
	coord := make([]uint64, rank)

	var scatter func(d int, data []byte, si, di uint64)
	scatter = func(d int, data []byte, si, di uint64) {
		for _, h := range hits[d][coord[d]] {
			s, t := si+h.in*inStrides[d], di+h.out*outStrides[d]
			if d == rank-1 {
				copy(out[t:t+elem], data[s:s+elem])
				continue
			}
			scatter(d+1, data, s, t)
		}
	}

	var visit func(d int) error
	visit = func(d int) error {
		if d == rank {
			ch, ok := index[c.number(coord, counts)]
			if !ok {
				return nil
			}
			data, err := c.decode(ch)
			if err != nil {
				return err
			}
			scatter(0, data, 0, 0)
			return nil
		}
		for _, k := range touched[d] {
			coord[d] = k
			if err := visit(d + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(0); err != nil {
		return nil, err
	}
	return out, nil
}
