package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// maxContinuations bounds the number of continuation blocks followed for
// one header so a corrupt file cannot loop forever.
const maxContinuations = 1024

// Header is a parsed object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32
	Messages []message.Message
}

// Read parses the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	switch {
	case string(peek) == "OHDR":
		return readV2(hr, address)
	case peek[0] == 1:
		return readV1(hr, address)
	}
	return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
}

// Message returns the first message of type typ, or nil.
func (h *Header) Message(typ message.Type) message.Message {
	for _, m := range h.Messages {
		if m.Type() == typ {
			return m
		}
	}
	return nil
}

// Dataspace returns the dataspace message, or nil.
func (h *Header) Dataspace() *message.Dataspace {
	m, _ := h.Message(message.TypeDataspace).(*message.Dataspace)
	return m
}

// Datatype returns the datatype message, or nil.
func (h *Header) Datatype() *message.Datatype {
	m, _ := h.Message(message.TypeDatatype).(*message.Datatype)
	return m
}

// Layout returns the data layout message, or nil.
func (h *Header) Layout() *message.DataLayout {
	m, _ := h.Message(message.TypeDataLayout).(*message.DataLayout)
	return m
}

// FilterPipeline returns the filter pipeline message, or nil.
func (h *Header) FilterPipeline() *message.FilterPipeline {
	m, _ := h.Message(message.TypeFilterPipeline).(*message.FilterPipeline)
	return m
}

// FillValue returns the fill value message, or nil.
func (h *Header) FillValue() *message.FillValue {
	m, _ := h.Message(message.TypeFillValue).(*message.FillValue)
	return m
}

// SymbolTable returns the symbol table message of an old-style group, or nil.
func (h *Header) SymbolTable() *message.SymbolTable {
	m, _ := h.Message(message.TypeSymbolTable).(*message.SymbolTable)
	return m
}

// LinkInfo returns the link info message of a new-style group, or nil.
func (h *Header) LinkInfo() *message.LinkInfo {
	m, _ := h.Message(message.TypeLinkInfo).(*message.LinkInfo)
	return m
}

// Links returns all link messages in order.
func (h *Header) Links() []*message.Link {
	var out []*message.Link
	for _, m := range h.Messages {
		if l, ok := m.(*message.Link); ok {
			out = append(out, l)
		}
	}
	return out
}

// Attributes returns all attribute messages in order.
func (h *Header) Attributes() []*message.Attribute {
	var out []*message.Attribute
	for _, m := range h.Messages {
		if a, ok := m.(*message.Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.Layout() != nil && h.Datatype() != nil
}

// decode parses one message body. Encodings this reader does not handle
// are kept raw so that the rest of the header stays usable.
func decode(r *binary.Reader, typ message.Type, flags uint8, data []byte) (message.Message, error) {
	msg, err := message.Parse(typ, flags, data, r)
	if errors.Is(err, message.ErrUnsupported) {
		return &message.Unknown{MsgType: typ, Flags: flags, Data: data}, nil
	}
	return msg, err
}
