package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

var (
	ErrUnsupported = errors.New("unsupported storage layout")
	ErrOutOfBounds = errors.New("selection out of bounds")
	ErrCorrupt     = errors.New("corrupt dataset storage")
)

// Layout reads the elements of one dataset.
type Layout interface {
	Class() message.LayoutClass

	// Read returns every element in row-major order.
	Read() ([]byte, error)

	// ReadSelection returns the elements picked by sel in row-major order
	// of the selection's shape.
	ReadSelection(sel Selection) ([]byte, error)
}

// Source holds the object header messages that describe a dataset's
// storage.
type Source struct {
	Layout  *message.DataLayout
	Space   *message.Dataspace
	Type    *message.Datatype
	Filters *message.FilterPipeline
	Fill    *message.FillValue
}

// Observer receives storage events, typically to feed metrics.
type Observer interface {
	// BytesRead reports bytes read from the file.
	BytesRead(n int)
	// ChunkDecoded reports a chunk passed through the filter pipeline.
	ChunkDecoded(stored, decoded int)
	// CacheLookup reports a chunk cache lookup.
	CacheLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) BytesRead(int)         {}
func (nopObserver) ChunkDecoded(int, int) {}
func (nopObserver) CacheLookup(bool)      {}

type options struct {
	cache    *ChunkCache
	observer Observer
}

// Option configures a layout.
type Option func(*options)

// WithCache shares decoded chunks through c. A nil cache disables caching.
func WithCache(c *ChunkCache) Option {
	return func(o *options) { o.cache = c }
}

// WithObserver reports storage events to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// New returns the layout handler for src.
func New(r *binary.Reader, src Source, opts ...Option) (Layout, error) {
	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if src.Layout == nil || src.Space == nil || src.Type == nil {
		return nil, fmt.Errorf("%w: missing layout, dataspace or datatype message", ErrCorrupt)
	}
	s := newShape(src)
	switch src.Layout.Class {
	case message.LayoutCompact:
		return &Compact{shape: s, data: src.Layout.CompactData}, nil
	case message.LayoutContiguous:
		return &Contiguous{shape: s, r: r, address: src.Layout.Address, obs: o.observer}, nil
	case message.LayoutChunked:
		return newChunked(r, s, src, o)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, src.Layout.Class)
}

// shape is what every layout needs to address elements.
type shape struct {
	dims []uint64
	elem int
	fill []byte
}

func newShape(src Source) shape {
	s := shape{dims: src.Space.Dims, elem: int(src.Type.Size)}
	if src.Space.Kind == message.SpaceNull {
		s.dims = []uint64{0}
	}
	if src.Fill != nil && len(src.Fill.Value) == s.elem {
		s.fill = src.Fill.Value
	}
	return s
}

func (s shape) numElements() uint64 {
	n := uint64(1)
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// output allocates a result buffer for n elements, pre-filled with the
// fill value.
func (s shape) output(n uint64) []byte {
	out := make([]byte, n*uint64(s.elem))
	if s.fill != nil {
		for i := 0; i < len(out); i += s.elem {
			copy(out[i:], s.fill)
		}
	}
	return out
}

// ReadSlice reads the hyperslab starting at start with count elements per
// dimension.
func ReadSlice(l Layout, start, count []uint64) ([]byte, error) {
	return l.ReadSelection(Hyperslab(start, count))
}

// ReadIndexed reads the given positions along axis and every position of
// the other dimensions. Positions may repeat and need not be sorted.
func ReadIndexed(l Layout, dims []uint64, axis int, indices []uint64) ([]byte, error) {
	if axis < 0 || axis >= len(dims) {
		return nil, fmt.Errorf("%w: axis %d of rank %d", ErrOutOfBounds, axis, len(dims))
	}
	sel := All(dims)
	sel[axis] = indices
	return l.ReadSelection(sel)
}
