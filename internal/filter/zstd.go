package filter

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}
		return encoder
	},
}

// Zstd is the HDF5 zstd plugin filter: each chunk is a single frame.
type Zstd struct {
	level zstd.EncoderLevel
}

// NewZstd maps the first client value, a zstd compression level, to the
// nearest encoder level.
func NewZstd(cd []uint32) *Zstd {
	level := zstd.SpeedDefault
	if len(cd) > 0 && cd[0] > 0 {
		level = zstd.EncoderLevelFromZstd(int(cd[0]))
	}
	return &Zstd{level: level}
}

func (z *Zstd) ID() uint16 { return message.FilterZstd }

func (z *Zstd) Decode(in []byte) ([]byte, error) {
	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	out, err := decoder.DecodeAll(in, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	return out, nil
}

func (z *Zstd) Encode(in []byte) ([]byte, error) {
	if z.level == zstd.SpeedDefault {
		encoder := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(encoder)
		return encoder.EncodeAll(in, nil), nil
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(z.level), zstd.WithEncoderCRC(false))
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(in, nil), nil
}
