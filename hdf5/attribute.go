package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/dtype"
	"github.com/robert-malhotra/go-gctx/internal/message"
	"github.com/robert-malhotra/go-gctx/internal/object"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	file *File
	msg  *message.Attribute
}

func attrNames(h *object.Header) []string {
	var names []string
	for _, a := range h.Attributes() {
		names = append(names, a.Name)
	}
	return names
}

func findAttr(f *File, h *object.Header, name string) *Attribute {
	for _, a := range h.Attributes() {
		if a.Name == name {
			return &Attribute{file: f, msg: a}
		}
	}
	return nil
}

func (a *Attribute) Name() string { return a.msg.Name }

// Shape returns the dimensions; scalars have none.
func (a *Attribute) Shape() []uint64 {
	if a.IsScalar() {
		return nil
	}
	return a.msg.Dataspace.Dims
}

func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.Kind == message.SpaceScalar
}

func (a *Attribute) NumElements() uint64 {
	if a.msg.Dataspace == nil {
		return 1
	}
	return a.msg.Dataspace.NumElements()
}

// Dtype returns a short type name such as "int64" or "vlen-string".
func (a *Attribute) Dtype() string { return a.msg.Datatype.String() }

// Values returns every element as []int64, []uint64, []float64 or
// []string.
func (a *Attribute) Values() (any, error) {
	v, err := dtype.Decode(a.msg.Datatype, a.msg.Data, int(a.NumElements()), a.file.varLen)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	return v, nil
}

// Value returns a scalar attribute as int64, uint64, float64 or string,
// and any other attribute as the slice Values returns.
func (a *Attribute) Value() (any, error) {
	v, err := a.Values()
	if err != nil || !a.IsScalar() {
		return v, err
	}
	switch s := v.(type) {
	case []int64:
		return s[0], nil
	case []uint64:
		return s[0], nil
	case []float64:
		return s[0], nil
	case []string:
		return s[0], nil
	}
	return v, nil
}

// ReadStrings returns the elements of a string attribute.
func (a *Attribute) ReadStrings() ([]string, error) {
	return dtype.Strings(a.msg.Datatype, a.msg.Data, int(a.NumElements()), a.file.varLen)
}

// ReadFloat64 returns the elements of a numeric attribute.
func (a *Attribute) ReadFloat64() ([]float64, error) {
	return dtype.Float64s(a.msg.Datatype, a.msg.Data, int(a.NumElements()))
}
