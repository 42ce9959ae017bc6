package layout

import "fmt"

// Selection lists the chosen coordinates of each dimension.
type Selection [][]uint64

// All selects every element of dims.
func All(dims []uint64) Selection {
	sel := make(Selection, len(dims))
	for d, n := range dims {
		sel[d] = span(0, n)
	}
	return sel
}

// Hyperslab selects count[d] consecutive coordinates from start[d].
func Hyperslab(start, count []uint64) Selection {
	n := min(len(start), len(count))
	sel := make(Selection, n)
	for d := 0; d < n; d++ {
		sel[d] = span(start[d], count[d])
	}
	return sel
}

func span(start, n uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = start + uint64(i)
	}
	return out
}

// Shape returns the number of coordinates selected per dimension.
func (s Selection) Shape() []uint64 {
	out := make([]uint64, len(s))
	for d, c := range s {
		out[d] = uint64(len(c))
	}
	return out
}

// Len returns the number of selected elements.
func (s Selection) Len() uint64 {
	n := uint64(1)
	for _, c := range s {
		n *= uint64(len(c))
	}
	return n
}

func (s Selection) validate(dims []uint64) error {
	if len(s) != len(dims) {
		return fmt.Errorf("%w: selection rank %d, dataset rank %d", ErrOutOfBounds, len(s), len(dims))
	}
	for d, coords := range s {
		for _, c := range coords {
			if c >= dims[d] {
				return fmt.Errorf("%w: coordinate %d in dimension %d of size %d", ErrOutOfBounds, c, d, dims[d])
			}
		}
	}
	return nil
}

// isAll reports whether s selects every element of dims in storage order.
func (s Selection) isAll(dims []uint64) bool {
	for d, coords := range s {
		if uint64(len(coords)) != dims[d] {
			return false
		}
		for i, c := range coords {
			if c != uint64(i) {
				return false
			}
		}
	}
	return true
}

func strides(shape []uint64, elem int) []uint64 {
	out := make([]uint64, len(shape))
	acc := uint64(elem)
	for d := len(shape) - 1; d >= 0; d-- {
		out[d] = acc
		acc *= shape[d]
	}
	return out
}

// gather copies the selected elements of src, a full row-major buffer of
// dims, into dst.
func gather(dst, src []byte, dims []uint64, sel Selection, elem int) {
	if len(sel) == 0 {
		copy(dst, src[:elem])
		return
	}
	in := strides(dims, elem)
	out := strides(sel.Shape(), elem)
	var walk func(d int, si, di uint64)
	walk = func(d int, si, di uint64) {
		last := d == len(sel)-1
		for i, c := range sel[d] {
			s, t := si+c*in[d], di+uint64(i)*out[d]
			if last {
				copy(dst[t:t+uint64(elem)], src[s:s+uint64(elem)])
				continue
			}
			walk(d+1, s, t)
		}
	}
	walk(0, 0, 0)
}
