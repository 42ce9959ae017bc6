package message

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/go-gctx/internal/binary"
)

// The hex bodies below were taken from files written by h5py.

func testReader() *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(nil), binpkg.DefaultConfig())
}

func parseHex(t *testing.T, typ Type, body string) Message {
	t.Helper()
	data, err := hex.DecodeString(body)
	require.NoError(t, err)
	msg, err := Parse(typ, 0, data, testReader())
	require.NoError(t, err)
	require.Equal(t, typ, msg.Type())
	return msg
}

func TestParseDataspace(t *testing.T) {
	ds := parseHex(t, TypeDataspace,
		"020201010a000000000000000a000000000000000a000000000000000a00000000000000").(*Dataspace)
	assert.Equal(t, SpaceSimple, ds.Kind)
	assert.Equal(t, []uint64{10, 10}, ds.Dims)
	assert.Equal(t, []uint64{10, 10}, ds.MaxDims)
	assert.Equal(t, uint64(100), ds.NumElements())

	scalar := parseHex(t, TypeDataspace, "0100000000000000").(*Dataspace)
	assert.Equal(t, SpaceScalar, scalar.Kind)
	assert.Equal(t, uint64(1), scalar.NumElements())
}

func TestParseDatatype(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		class  Class
		size   uint32
		str    string
		string bool
	}{
		{"float64", "11203f000800000000004000340b0034ff030000", ClassFloat, 8, "float64", false},
		{"fixed string", "131100000a000000", ClassString, 10, "string10", true},
		{"vlen string", "1901010010000000100000000100000000000800", ClassVarLen, 16, "vlen-string", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := parseHex(t, TypeDatatype, tt.body).(*Datatype)
			assert.Equal(t, tt.class, dt.Class)
			assert.Equal(t, tt.size, dt.Size)
			assert.Equal(t, tt.str, dt.String())
			assert.Equal(t, tt.string, dt.IsString())
			assert.Equal(t, binary.LittleEndian, dt.Order)
		})
	}

	dt := parseHex(t, TypeDatatype, "131100000a000000").(*Datatype)
	assert.Equal(t, PadNull, dt.Pad)
	assert.Equal(t, uint8(1), dt.CharSet)
}

func TestParseLayout(t *testing.T) {
	fa := parseHex(t, TypeDataLayout, "0402000301050508030afb01000000000000").(*DataLayout)
	assert.Equal(t, LayoutChunked, fa.Class)
	assert.Equal(t, IndexFixedArray, fa.Index)
	assert.Equal(t, []uint64{5, 5}, fa.ChunkDims)
	assert.Equal(t, uint32(8), fa.ElementSize)
	assert.Equal(t, uint8(10), fa.PageBits)
	assert.Equal(t, uint64(0x1fb), fa.Address)

	bt := parseHex(t, TypeDataLayout, "030203780500000000000005000000050000000800000000").(*DataLayout)
	assert.Equal(t, IndexBTreeV1, bt.Index)
	assert.Equal(t, []uint64{5, 5}, bt.ChunkDims)
	assert.Equal(t, uint64(0x578), bt.Address)

	contig := parseHex(t, TypeDataLayout, "040100080000000000001400000000000000").(*DataLayout)
	assert.Equal(t, LayoutContiguous, contig.Class)
	assert.Equal(t, uint64(0x800), contig.Address)
	assert.Equal(t, uint64(20), contig.Size)
}

func TestParseFilterPipeline(t *testing.T) {
	fp := parseHex(t, TypeFilterPipeline, "02020200010001000800000001000100010004000000").(*FilterPipeline)
	require.Len(t, fp.Filters, 2)
	assert.Equal(t, FilterShuffle, fp.Filters[0].ID)
	assert.Equal(t, []uint32{8}, fp.Filters[0].ClientData)
	assert.Equal(t, FilterDeflate, fp.Filters[1].ID)
	assert.Equal(t, []uint32{4}, fp.Filters[1].ClientData)
	assert.True(t, fp.Filters[1].Optional())
	assert.True(t, fp.Has(FilterDeflate))
	assert.False(t, fp.Has(FilterZstd))
}

func TestParseLink(t *testing.T) {
	l := parseHex(t, TypeLink, "01040000000000000000076368756e6b6564ef00000000000000").(*Link)
	assert.Equal(t, LinkHard, l.Kind)
	assert.Equal(t, "chunked", l.Name)
	assert.Equal(t, uint64(239), l.Address)

	buf := binpkg.NewBuffer(binpkg.DefaultConfig())
	buf.PutUint8(1)
	buf.PutUint8(0x08)
	buf.PutUint8(uint8(LinkSoft))
	buf.PutUint8(5)
	buf.PutBytes([]byte("alias"))
	buf.PutUint16(7)
	buf.PutBytes([]byte("/0/DATA"))
	msg, err := Parse(TypeLink, 0, buf.Bytes(), testReader())
	require.NoError(t, err)
	soft := msg.(*Link)
	assert.Equal(t, LinkSoft, soft.Kind)
	assert.Equal(t, "/0/DATA", soft.Target)
}

func TestParseFillValue(t *testing.T) {
	fv := parseHex(t, TypeFillValue, "030b").(*FillValue)
	assert.False(t, fv.Defined)
	assert.Nil(t, fv.Value)

	fv = parseHex(t, TypeFillValue, "032a0400000000c0f9c4").(*FillValue)
	assert.True(t, fv.Defined)
	assert.Equal(t, []byte{0x00, 0xc0, 0xf9, 0xc4}, fv.Value)
}

func TestParseAttributeV3(t *testing.T) {
	buf := binpkg.NewBuffer(binpkg.DefaultConfig())
	buf.PutUint8(3)
	buf.PutUint8(0)
	buf.PutUint16(8) // "version" + NUL
	buf.PutUint16(8) // fixed string datatype
	buf.PutUint16(8) // scalar dataspace
	buf.PutUint8(0)
	buf.PutBytes([]byte("version\x00"))
	buf.PutBytes([]byte{0x13, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00})
	buf.PutBytes([]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	buf.PutBytes([]byte("GCTX"))

	msg, err := Parse(TypeAttribute, 0, buf.Bytes(), testReader())
	require.NoError(t, err)
	attr := msg.(*Attribute)
	assert.Equal(t, "version", attr.Name)
	assert.Equal(t, SpaceScalar, attr.Dataspace.Kind)
	assert.Equal(t, []byte("GCTX"), attr.Data)
}

func TestParseTruncated(t *testing.T) {
	_, err := Parse(TypeDataLayout, 0, []byte{0x04, 0x01, 0x00}, testReader())
	assert.Error(t, err)

	_, err = Parse(TypeDataspace, 0, []byte{0x07, 0, 0, 0}, testReader())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSharedMessagesStayRaw(t *testing.T) {
	msg, err := Parse(TypeDatatype, FlagShared, []byte{1, 2, 3}, testReader())
	require.NoError(t, err)
	u, ok := msg.(*Unknown)
	require.True(t, ok)
	assert.True(t, u.Shared())
}
