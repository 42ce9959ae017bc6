package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Type is a header message type.
type Type uint16

const (
	TypeNIL               Type = 0x0000
	TypeDataspace         Type = 0x0001
	TypeLinkInfo          Type = 0x0002
	TypeDatatype          Type = 0x0003
	TypeFillValueOld      Type = 0x0004
	TypeFillValue         Type = 0x0005
	TypeLink              Type = 0x0006
	TypeExternalDataFiles Type = 0x0007
	TypeDataLayout        Type = 0x0008
	TypeGroupInfo         Type = 0x000A
	TypeFilterPipeline    Type = 0x000B
	TypeAttribute         Type = 0x000C
	TypeModTime           Type = 0x000E
	TypeContinuation      Type = 0x0010
	TypeSymbolTable       Type = 0x0011
	TypeAttributeInfo     Type = 0x0015
)

// FlagShared marks a message stored in a shared message table or in
// another object header.
const FlagShared = 0x02

var (
	ErrTruncated   = errors.New("message truncated")
	ErrUnsupported = errors.New("unsupported message encoding")
)

// Message is implemented by every decoded header message.
type Message interface {
	Type() Type
}

// Parse decodes a message body. r supplies the file's offset and length
// widths; the body itself is read from data.
func Parse(typ Type, flags uint8, data []byte, r *binary.Reader) (Message, error) {
	if flags&FlagShared != 0 && typ != TypeContinuation {
		return &Unknown{MsgType: typ, Flags: flags, Data: data}, nil
	}
	sub := r.Sub(data)
	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = parseDataspace(sub)
	case TypeLinkInfo:
		msg, err = parseLinkInfo(sub)
	case TypeDatatype:
		var dt *Datatype
		dt, err = parseDatatype(sub)
		msg = dt
	case TypeFillValueOld:
		msg, err = parseFillValueOld(sub)
	case TypeFillValue:
		msg, err = parseFillValue(sub)
	case TypeLink:
		msg, err = parseLink(sub)
	case TypeDataLayout:
		msg, err = parseDataLayout(sub)
	case TypeFilterPipeline:
		msg, err = parseFilterPipeline(sub)
	case TypeAttribute:
		msg, err = parseAttribute(sub, len(data))
	case TypeContinuation:
		msg, err = parseContinuation(sub)
	case TypeSymbolTable:
		msg, err = parseSymbolTable(sub)
	default:
		return &Unknown{MsgType: typ, Flags: flags, Data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing message type %#04x: %w", uint16(typ), err)
	}
	return msg, nil
}

// Unknown holds a message this package does not decode.
type Unknown struct {
	MsgType Type
	Flags   uint8
	Data    []byte
}

func (m *Unknown) Type() Type { return m.MsgType }

// Shared reports whether the message body is a reference to a shared message.
func (m *Unknown) Shared() bool { return m.Flags&FlagShared != 0 }

// Continuation points to another block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

func parseContinuation(r *binary.Reader) (*Continuation, error) {
	off, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	return &Continuation{Offset: off, Length: length}, nil
}

// SymbolTable locates the v1 B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTreeAddress uint64
	HeapAddress  uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(r *binary.Reader) (*SymbolTable, error) {
	bt, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}
	heap, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}
	return &SymbolTable{BTreeAddress: bt, HeapAddress: heap}, nil
}

// LinkInfo is present in new-style groups. A defined fractal heap address
// means links are kept in dense storage rather than in Link messages.
type LinkInfo struct {
	Flags              uint8
	FractalHeapAddress uint64
	NameIndexAddress   uint64
	dense              bool
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// Dense reports whether the group stores its links in a fractal heap.
func (m *LinkInfo) Dense() bool { return m.dense }

func parseLinkInfo(r *binary.Reader) (*LinkInfo, error) {
	if _, err := r.ReadUint8(); err != nil {
		return nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if flags&0x01 != 0 {
		r.Skip(8)
	}
	m := &LinkInfo{Flags: flags}
	if m.FractalHeapAddress, err = r.ReadOffset(); err != nil {
		return nil, err
	}
	if m.NameIndexAddress, err = r.ReadOffset(); err != nil {
		return nil, err
	}
	m.dense = !r.IsUndefinedOffset(m.FractalHeapAddress)
	return m, nil
}
