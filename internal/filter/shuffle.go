package filter

import "github.com/robert-malhotra/go-gctx/internal/message"

// Shuffle regroups the bytes of fixed-size elements by significance.
// Trailing bytes that do not form a whole element are left in place.
type Shuffle struct {
	size int
}

// NewShuffle reads the element size from the first client value.
func NewShuffle(cd []uint32) *Shuffle {
	size := 1
	if len(cd) > 0 && cd[0] > 0 {
		size = int(cd[0])
	}
	return &Shuffle{size: size}
}

func (s *Shuffle) ID() uint16 { return message.FilterShuffle }

func (s *Shuffle) Decode(in []byte) ([]byte, error) {
	n := len(in) / s.size
	if s.size <= 1 || n <= 1 {
		return in, nil
	}
	out := make([]byte, len(in))
	for b := 0; b < s.size; b++ {
		src := in[b*n : (b+1)*n]
		for i, v := range src {
			out[i*s.size+b] = v
		}
	}
	copy(out[n*s.size:], in[n*s.size:])
	return out, nil
}

func (s *Shuffle) Encode(in []byte) ([]byte, error) {
	n := len(in) / s.size
	if s.size <= 1 || n <= 1 {
		return in, nil
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for b := 0; b < s.size; b++ {
			out[b*n+i] = in[i*s.size+b]
		}
	}
	copy(out[n*s.size:], in[n*s.size:])
	return out, nil
}
