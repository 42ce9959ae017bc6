package filter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// defaultLZ4BlockSize matches the HDF5 lz4 plugin when no block size is
// given in the client data.
const defaultLZ4BlockSize = 1 << 30

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4 is the HDF5 lz4 plugin filter. A chunk is a 12-byte big-endian
// header (original size u64, block size u32) followed by blocks, each
// prefixed by its compressed size. A block whose compressed size equals
// its original size is stored raw.
type LZ4 struct {
	blockSize int
}

// NewLZ4 reads the block size from the first client value.
func NewLZ4(cd []uint32) *LZ4 {
	bs := defaultLZ4BlockSize
	if len(cd) > 0 && cd[0] > 0 {
		bs = int(cd[0])
	}
	return &LZ4{blockSize: bs}
}

func (l *LZ4) ID() uint16 { return message.FilterLZ4 }

func (l *LZ4) Decode(in []byte) ([]byte, error) {
	if len(in) < 12 {
		return nil, fmt.Errorf("%w: lz4 header truncated", ErrCorrupt)
	}
	total := binary.BigEndian.Uint64(in[0:8])
	blockSize := uint64(binary.BigEndian.Uint32(in[8:12]))
	if blockSize == 0 || total > uint64(len(in))*255+12 {
		return nil, fmt.Errorf("%w: lz4 header sizes %d/%d", ErrCorrupt, total, blockSize)
	}
	out := make([]byte, 0, total)
	p := in[12:]
	for remaining := total; remaining > 0; {
		want := min(blockSize, remaining)
		if len(p) < 4 {
			return nil, fmt.Errorf("%w: lz4 block header truncated", ErrCorrupt)
		}
		n := uint64(binary.BigEndian.Uint32(p))
		p = p[4:]
		if n > uint64(len(p)) {
			return nil, fmt.Errorf("%w: lz4 block of %d bytes exceeds input", ErrCorrupt, n)
		}
		block := p[:n]
		p = p[n:]
		if n == want {
			out = append(out, block...)
		} else {
			dst := out[len(out) : len(out)+int(want)]
			got, err := lz4.UncompressBlock(block, dst)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
			}
			if uint64(got) != want {
				return nil, fmt.Errorf("%w: lz4 block decoded to %d bytes, want %d", ErrCorrupt, got, want)
			}
			out = out[:len(out)+got]
		}
		remaining -= want
	}
	return out, nil
}

func (l *LZ4) Encode(in []byte) ([]byte, error) {
	blockSize := min(l.blockSize, max(len(in), 1))
	out := make([]byte, 12, 12+len(in)+len(in)/blockSize*4+64)
	binary.BigEndian.PutUint64(out[0:8], uint64(len(in)))
	binary.BigEndian.PutUint32(out[8:12], uint32(blockSize))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	dst := make([]byte, lz4.CompressBlockBound(blockSize))
	for off := 0; off < len(in); off += blockSize {
		block := in[off:min(off+blockSize, len(in))]
		n, err := lc.CompressBlock(block, dst)
		if err != nil && !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, err
		}
		// Incompressible blocks are written as is.
		if n == 0 || n >= len(block) {
			out = binary.BigEndian.AppendUint32(out, uint32(len(block)))
			out = append(out, block...)
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(n))
		out = append(out, dst[:n]...)
	}
	return out, nil
}
