package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Deflate is the zlib-wrapped DEFLATE filter.
type Deflate struct {
	level int
}

// NewDeflate reads the compression level from the first client value.
func NewDeflate(cd []uint32) *Deflate {
	level := zlib.DefaultCompression
	if len(cd) > 0 && cd[0] <= 9 {
		level = int(cd[0])
	}
	return &Deflate{level: level}
}

func (d *Deflate) ID() uint16 { return message.FilterDeflate }

func (d *Deflate) Decode(in []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}

func (d *Deflate) Encode(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, d.level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(in); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
