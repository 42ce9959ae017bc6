package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Compact serves elements stored in the object header.
type Compact struct {
	shape
	data []byte
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c *Compact) Read() ([]byte, error) {
	want := c.numElements() * uint64(c.elem)
	if uint64(len(c.data)) < want {
		return nil, fmt.Errorf("%w: compact data holds %d bytes, need %d", ErrCorrupt, len(c.data), want)
	}
	out := make([]byte, want)
	copy(out, c.data)
	return out, nil
}

func (c *Compact) ReadSelection(sel Selection) ([]byte, error) {
	if err := sel.validate(c.dims); err != nil {
		return nil, err
	}
	all, err := c.Read()
	if err != nil {
		return nil, err
	}
	out := make([]byte, sel.Len()*uint64(c.elem))
	gather(out, all, c.dims, sel, c.elem)
	return out, nil
}
