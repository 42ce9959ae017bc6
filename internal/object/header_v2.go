package object

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

const (
	flagChunkSizeMask   = 0x03
	flagCreationOrder   = 0x04
	flagAttrPhaseChange = 0x10
	flagTimes           = 0x20
)

func readV2(r *binary.Reader, address uint64) (*Header, error) {
	start := r.Pos()
	head, err := r.ReadBytes(6)
	if err != nil {
		return nil, fmt.Errorf("reading v2 object header prefix: %w", err)
	}
	if head[4] != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, head[4])
	}
	h := &Header{Version: 2, Address: address, Flags: head[5], RefCount: 1}
	if h.Flags&flagTimes != 0 {
		r.Skip(16)
	}
	if h.Flags&flagAttrPhaseChange != 0 {
		r.Skip(4)
	}
	size, err := r.ReadUintN(1 << int(h.Flags&flagChunkSizeMask))
	if err != nil {
		return nil, err
	}

	// The first chunk's checksum covers the prefix too.
	blocks := []block{{start: start, length: r.Pos() - start + int64(size) + 4}}
	msgStart := []int64{r.Pos()}
	for i := 0; i < len(blocks); i++ {
		if i > maxContinuations {
			return nil, fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		conts, err := h.readV2Block(r, blocks[i], msgStart[i])
		if err != nil {
			return nil, fmt.Errorf("object header at %d: %w", address, err)
		}
		for _, c := range conts {
			blocks = append(blocks, c)
			msgStart = append(msgStart, c.start+4)
		}
	}
	return h, nil
}

// readV2Block verifies a header or continuation chunk and decodes its
// messages, which run from msgStart to the trailing checksum.
func (h *Header) readV2Block(r *binary.Reader, b block, msgStart int64) ([]block, error) {
	raw, err := r.At(b.start).ReadBytes(int(b.length))
	if err != nil {
		return nil, err
	}
	if b.start != int64(h.Address) && string(raw[:4]) != "OCHK" {
		return nil, fmt.Errorf("%w: continuation block at %d has no OCHK signature", ErrInvalidHeader, b.start)
	}
	body := len(raw) - 4
	stored := r.ByteOrder().Uint32(raw[body:])
	if got := binary.Lookup3(raw[:body]); got != stored {
		return nil, fmt.Errorf("%w: block at %d", ErrChecksumMismatch, b.start)
	}

	prefix := 4
	if h.Flags&flagCreationOrder != 0 {
		prefix = 6
	}
	br := r.Sub(raw)
	br.Skip(msgStart - b.start)
	end := int64(body)

	var conts []block
	// Fewer bytes than a message prefix left at the end is a gap.
	for br.Pos()+int64(prefix) <= end {
		mh, err := br.ReadBytes(prefix)
		if err != nil {
			return nil, err
		}
		typ := message.Type(mh[0])
		size := int(br.ByteOrder().Uint16(mh[1:3]))
		flags := mh[3]
		if br.Pos()+int64(size) > end {
			return nil, fmt.Errorf("%w: message type %#02x overruns block", ErrInvalidHeader, uint16(typ))
		}
		data, err := br.ReadBytes(size)
		if err != nil {
			return nil, err
		}
		if typ == message.TypeNIL {
			continue
		}
		msg, err := decode(br, typ, flags, data)
		if err != nil {
			return nil, err
		}
		if c, ok := msg.(*message.Continuation); ok {
			conts = append(conts, block{start: int64(c.Offset), length: int64(c.Length)})
			continue
		}
		h.Messages = append(h.Messages, msg)
	}
	return conts, nil
}
