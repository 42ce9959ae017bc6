package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

var (
	ErrUnsupported      = errors.New("unsupported filter")
	ErrChecksumMismatch = errors.New("fletcher32 checksum mismatch")
	ErrCorrupt          = errors.New("corrupt filtered data")
)

// Filter transforms chunk bytes in both directions.
type Filter interface {
	ID() uint16
	Decode(in []byte) ([]byte, error)
	Encode(in []byte) ([]byte, error)
}

var constructors = map[uint16]func(cd []uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func(cd []uint32) Filter { return Fletcher32{} },
	message.FilterLZ4:        func(cd []uint32) Filter { return NewLZ4(cd) },
	message.FilterZstd:       func(cd []uint32) Filter { return NewZstd(cd) },
}

var names = map[uint16]string{
	message.FilterDeflate:    "deflate",
	message.FilterShuffle:    "shuffle",
	message.FilterFletcher32: "fletcher32",
	message.FilterSZIP:       "szip",
	message.FilterLZ4:        "lz4",
	message.FilterZstd:       "zstd",
}

// Name returns a readable filter name.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

// New builds the filter described by info.
func New(info message.FilterInfo) (Filter, error) {
	ctor, ok := constructors[info.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s (id %d)", ErrUnsupported, Name(info.ID), info.ID)
	}
	return ctor(info.ClientData), nil
}
