package filter

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	binpkg "github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Fletcher32 appends a checksum to each chunk and verifies it on read.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (Fletcher32) Decode(in []byte) ([]byte, error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(in))
	}
	body := in[:len(in)-4]
	stored := binary.LittleEndian.Uint32(in[len(in)-4:])
	sum := binpkg.Fletcher32(body)
	// Files from HDF5 before 1.6.3 stored the checksum byte-reversed.
	if stored != sum && stored != bits.ReverseBytes32(sum) {
		return nil, fmt.Errorf("%w: stored %#08x, computed %#08x", ErrChecksumMismatch, stored, sum)
	}
	return body, nil
}

func (Fletcher32) Encode(in []byte) ([]byte, error) {
	out := make([]byte, len(in), len(in)+4)
	copy(out, in)
	return binary.LittleEndian.AppendUint32(out, binpkg.Fletcher32(in)), nil
}
