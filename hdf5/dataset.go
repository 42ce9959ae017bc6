package hdf5

import (
	"fmt"
	pathpkg "path"

	"github.com/robert-malhotra/go-gctx/internal/dtype"
	"github.com/robert-malhotra/go-gctx/internal/layout"
	"github.com/robert-malhotra/go-gctx/internal/message"
	"github.com/robert-malhotra/go-gctx/internal/object"
)

// Dataset is an HDF5 dataset.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout
}

func newDataset(f *File, path string, h *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:      f,
		path:      path,
		header:    h,
		dataspace: h.Dataspace(),
		datatype:  h.Datatype(),
	}
	opts := []layout.Option{layout.WithCache(f.cache)}
	if f.observer != nil {
		opts = append(opts, layout.WithObserver(f.observer))
	}
	var err error
	ds.layout, err = layout.New(f.reader, layout.Source{
		Layout:  h.Layout(),
		Space:   ds.dataspace,
		Type:    ds.datatype,
		Filters: h.FilterPipeline(),
		Fill:    h.FillValue(),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return ds, nil
}

// Name returns the last component of the dataset's path.
func (d *Dataset) Name() string { return pathpkg.Base(d.path) }

func (d *Dataset) Path() string { return d.path }

// Shape returns the dimensions; scalars have none.
func (d *Dataset) Shape() []uint64 {
	if d.dataspace.Kind == message.SpaceScalar {
		return nil
	}
	return d.dataspace.Dims
}

func (d *Dataset) Rank() int { return len(d.Shape()) }

func (d *Dataset) NumElements() uint64 { return d.dataspace.NumElements() }

// Dtype returns a short type name such as "float32", "int64" or
// "string10".
func (d *Dataset) Dtype() string { return d.datatype.String() }

// Kind returns how elements convert to Go values.
func (d *Dataset) Kind() (dtype.Kind, error) { return dtype.KindOf(d.datatype) }

// Layout returns the storage class name: compact, contiguous or chunked.
func (d *Dataset) Layout() string { return d.layout.Class().String() }

// read returns every element when fetch is nil, otherwise the elements
// fetch selects from the layout.
func (d *Dataset) read(fetch func(layout.Layout) ([]byte, error)) ([]byte, uint64, error) {
	if d.file.isClosed() {
		return nil, 0, ErrClosed
	}
	if fetch == nil {
		raw, err := d.layout.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", d.path, err)
		}
		return raw, d.NumElements(), nil
	}
	raw, err := fetch(d.layout)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", d.path, err)
	}
	if d.datatype.Size == 0 {
		return raw, 0, nil
	}
	return raw, uint64(len(raw)) / uint64(d.datatype.Size), nil
}

// ReadRaw returns every element as stored.
func (d *Dataset) ReadRaw() ([]byte, error) {
	raw, _, err := d.read(nil)
	return raw, err
}

// Values returns every element as []int64, []uint64, []float64 or
// []string.
func (d *Dataset) Values() (any, error) {
	raw, n, err := d.read(nil)
	if err != nil {
		return nil, err
	}
	return dtype.Decode(d.datatype, raw, int(n), d.file.varLen)
}

func (d *Dataset) ReadFloat64() ([]float64, error) {
	raw, n, err := d.read(nil)
	if err != nil {
		return nil, err
	}
	return dtype.Float64s(d.datatype, raw, int(n))
}

func (d *Dataset) ReadFloat32() ([]float32, error) {
	raw, n, err := d.read(nil)
	if err != nil {
		return nil, err
	}
	return dtype.Float32s(d.datatype, raw, int(n))
}

func (d *Dataset) ReadInt64() ([]int64, error) {
	raw, n, err := d.read(nil)
	if err != nil {
		return nil, err
	}
	return dtype.Int64s(d.datatype, raw, int(n))
}

func (d *Dataset) ReadStrings() ([]string, error) {
	raw, n, err := d.read(nil)
	if err != nil {
		return nil, err
	}
	return dtype.Strings(d.datatype, raw, int(n), d.file.varLen)
}

// ReadSliceFloat32 reads the hyperslab of count elements per dimension
// starting at start.
func (d *Dataset) ReadSliceFloat32(start, count []uint64) ([]float32, error) {
	raw, n, err := d.read(func(l layout.Layout) ([]byte, error) {
		return layout.ReadSlice(l, start, count)
	})
	if err != nil {
		return nil, err
	}
	return dtype.Float32s(d.datatype, raw, int(n))
}

// ReadIndexedFloat32 reads the given positions along axis, in the order
// given, together with every position of the other dimensions. The result
// is row-major with axis holding len(indices) entries.
func (d *Dataset) ReadIndexedFloat32(axis int, indices []uint64) ([]float32, error) {
	shape := d.Shape()
	if axis < 0 || axis >= len(shape) {
		return nil, fmt.Errorf("%w: axis %d of %d-d dataset %s", ErrSelection, axis, len(shape), d.path)
	}
	raw, n, err := d.read(func(l layout.Layout) ([]byte, error) {
		return layout.ReadIndexed(l, shape, axis, indices)
	})
	if err != nil {
		return nil, err
	}
	return dtype.Float32s(d.datatype, raw, int(n))
}

func (d *Dataset) Attrs() []string { return attrNames(d.header) }

// Attr returns the named attribute, or nil.
func (d *Dataset) Attr(name string) *Attribute { return findAttr(d.file, d.header, name) }
