package object

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Version 1 prefix: version, reserved, message count u16, reference count
// u32, header size u32, 4 bytes of padding. Each message: type u16,
// size u16, flags u8, 3 reserved bytes, then the 8-byte aligned body.

func readV1(r *binary.Reader, address uint64) (*Header, error) {
	prefix, err := r.ReadBytes(16)
	if err != nil {
		return nil, fmt.Errorf("reading v1 object header prefix: %w", err)
	}
	order := r.ByteOrder()
	nmsgs := int(order.Uint16(prefix[2:4]))
	h := &Header{
		Version:  1,
		Address:  address,
		RefCount: order.Uint32(prefix[4:8]),
		Messages: make([]message.Message, 0, nmsgs),
	}
	size := int64(order.Uint32(prefix[8:12]))

	blocks := []block{{start: int64(address) + 16, length: size}}
	for i := 0; i < len(blocks); i++ {
		if i > maxContinuations {
			return nil, fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		conts, err := h.readV1Block(r, blocks[i])
		if err != nil {
			return nil, fmt.Errorf("object header at %d: %w", address, err)
		}
		blocks = append(blocks, conts...)
	}
	return h, nil
}

type block struct {
	start  int64
	length int64
}

func (h *Header) readV1Block(r *binary.Reader, b block) ([]block, error) {
	br := r.At(b.start)
	end := b.start + b.length
	var conts []block
	for br.Pos()+8 <= end {
		head, err := br.ReadBytes(8)
		if err != nil {
			return nil, err
		}
		typ := message.Type(br.ByteOrder().Uint16(head[0:2]))
		size := int(br.ByteOrder().Uint16(head[2:4]))
		flags := head[4]
		if br.Pos()+int64(size) > end {
			return nil, fmt.Errorf("%w: message type %#04x overruns block", ErrInvalidHeader, uint16(typ))
		}
		data, err := br.ReadBytes(size)
		if err != nil {
			return nil, err
		}
		br.Skip(int64((8 - size%8) % 8))

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
