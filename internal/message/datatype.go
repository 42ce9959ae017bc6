package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-gctx/internal/binary"
)

// Class is a datatype class.
type Class uint8

const (
	ClassFixedPoint Class = 0
	ClassFloat      Class = 1
	ClassTime       Class = 2
	ClassString     Class = 3
	ClassBitfield   Class = 4
	ClassOpaque     Class = 5
	ClassCompound   Class = 6
	ClassReference  Class = 7
	ClassEnum       Class = 8
	ClassVarLen     Class = 9
	ClassArray      Class = 10
)

func (c Class) String() string {
	names := [...]string{"fixed-point", "float", "time", "string", "bitfield",
		"opaque", "compound", "reference", "enum", "variable-length", "array"}
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// StringPad is the padding convention of fixed-length strings.
type StringPad uint8

const (
	PadNullTerm StringPad = 0
	PadNull     StringPad = 1
	PadSpace    StringPad = 2
)

// Datatype describes the element type of a dataset or attribute.
type Datatype struct {
	Class   Class
	Version uint8
	Size    uint32
	Order   binary.ByteOrder
	Signed  bool

	// Strings, including variable-length strings.
	Pad     StringPad
	CharSet uint8

	// VarLenString is set for variable-length strings; other
	// variable-length sequences keep their element type in Base.
	VarLenString bool

	// Base is the parent type of enums and variable-length sequences.
	Base *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsNumeric reports whether elements are integers or floats, directly or
// through an enum.
func (m *Datatype) IsNumeric() bool {
	switch m.Class {
	case ClassFixedPoint, ClassFloat:
		return true
	case ClassEnum:
		return m.Base != nil && m.Base.IsNumeric()
	}
	return false
}

// IsString reports whether elements are fixed or variable-length strings.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.VarLenString)
}

func (m *Datatype) String() string {
	switch {
	case m.Class == ClassVarLen && m.VarLenString:
		return "vlen-string"
	case m.Class == ClassFixedPoint && m.Signed:
		return fmt.Sprintf("int%d", m.Size*8)
	case m.Class == ClassFixedPoint:
		return fmt.Sprintf("uint%d", m.Size*8)
	case m.Class == ClassFloat:
		return fmt.Sprintf("float%d", m.Size*8)
	case m.Class == ClassString:
		return fmt.Sprintf("string%d", m.Size)
	}
	return m.Class.String()
}

func parseDatatype(r *binpkg.Reader) (*Datatype, error) {
	head, err := r.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	m := &Datatype{
		Class:   Class(head[0] & 0x0F),
		Version: head[0] >> 4,
		Size:    binary.LittleEndian.Uint32(head[4:8]),
		Order:   binary.LittleEndian,
	}
	bits := uint32(head[1]) | uint32(head[2])<<8 | uint32(head[3])<<16

	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		if bits&0x01 != 0 {
			m.Order = binary.BigEndian
		}
		m.Signed = bits&0x08 != 0
		r.Skip(4)
	case ClassFloat:
		if bits&0x01 != 0 {
			m.Order = binary.BigEndian
		}
		if bits&0x40 != 0 {
			return nil, fmt.Errorf("VAX float order: %w", ErrUnsupported)
		}
		m.Signed = true
		r.Skip(12)
	case ClassString:
		m.Pad = StringPad(bits & 0x0F)
		m.CharSet = uint8(bits>>4) & 0x0F
	case ClassEnum:
		if m.Base, err = parseDatatype(r); err != nil {
			return nil, fmt.Errorf("enum base type: %w", err)
		}
	case ClassVarLen:
		m.VarLenString = bits&0x0F == 1
		m.Pad = StringPad(bits>>4) & 0x0F
		m.CharSet = uint8(bits>>8) & 0x0F
		if m.Base, err = parseDatatype(r); err != nil {
			return nil, fmt.Errorf("variable-length base type: %w", err)
		}
	}
	return m, nil
}
