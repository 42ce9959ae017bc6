package layout

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Contiguous serves elements stored in one block of the file. Storage that
// was never allocated reads as the fill value.
type Contiguous struct {
	shape
	r       *binary.Reader
	address uint64
	obs     Observer
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c *Contiguous) allocated() bool { return !c.r.IsUndefinedOffset(c.address) }

func (c *Contiguous) readAt(pos, n uint64) ([]byte, error) {
	data, err := c.r.At(int64(c.address + pos)).ReadBytes(int(n))
	if err != nil {
		return nil, fmt.Errorf("reading contiguous data: %w", err)
	}
	c.obs.BytesRead(len(data))
	return data, nil
}

func (c *Contiguous) Read() ([]byte, error) {
	n := c.numElements()
	if !c.allocated() || n == 0 {
		return c.output(n), nil
	}
	return c.readAt(0, n*uint64(c.elem))
}

// ReadSelection reads, for every combination of the leading coordinates,
// the span of the last dimension that covers the selected positions.
func (c *Contiguous) ReadSelection(sel Selection) ([]byte, error) {
	if err := sel.validate(c.dims); err != nil {
		return nil, err
	}
	if len(sel) == 0 || sel.isAll(c.dims) {
		return c.Read()
	}
	out := c.output(sel.Len())
	if !c.allocated() || len(out) == 0 {
		return out, nil
	}

	last := len(sel) - 1
	lo, hi := slices.Min(sel[last]), slices.Max(sel[last])
	in := strides(c.dims, c.elem)
	rowOut := uint64(len(sel[last])) * uint64(c.elem)
	elem := uint64(c.elem)

	var row uint64
	var walk func(d int, base uint64) error
	walk = func(d int, base uint64) error {
		if d == last {
			buf, err := c.readAt(base+lo*elem, (hi-lo+1)*elem)
			if err != nil {
				return err
			}
			dst := out[row*rowOut:]
			for i, x := range sel[last] {
				s := (x - lo) * elem
				copy(dst[uint64(i)*elem:uint64(i+1)*elem], buf[s:s+elem])
			}
			row++
			return nil
		}
		for _, x := range sel[d] {
			if err := walk(d+1, base+x*in[d]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, 0); err != nil {
		return nil, err
	}
	return out, nil
}
