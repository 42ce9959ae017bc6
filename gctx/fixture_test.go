package gctx

import (
	"math"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/h5build"
)

type field struct {
	name   string
	values any
}

// gctxFile describes a GCTX file in logical orientation; write stores
// the payload transposed as [plane][col][row].
type gctxFile struct {
	rowIDs    any
	colIDs    any
	rowFields []field
	colFields []field
	nRows     int
	nCols     int
	value     []float32
	coverage  []float32 // nil writes a 2-d payload
	version   any
	opts      []h5build.Option
}

// standard has rows r1..r4 and columns c1..c3 with value 10*r+c and
// coverage r*c.
func standard(opts ...h5build.Option) gctxFile {
	g := gctxFile{
		rowIDs: []string{"r1", "r2", "r3", "r4"},
		colIDs: []string{"c1", "c2", "c3"},
		rowFields: []field{
			{"chrom", []string{"chr1", "chr2", "chr3", "chr4"}},
			{"pos", []int64{100, 200, -666, 400}},
		},
		colFields: []field{
			{"age", []float64{1.5, -666, 3}},
			{"name", []string{"a", "-666", "c"}},
		},
		nRows:   4,
		nCols:   3,
		version: "GCTX1.0",
		opts:    opts,
	}
	for r := 1; r <= 4; r++ {
		for c := 1; c <= 3; c++ {
			g.value = append(g.value, float32(10*r+c))
			g.coverage = append(g.coverage, float32(r*c))
		}
	}
	return g
}

func (g gctxFile) write(t *testing.T) string {
	t.Helper()
	f := h5build.New()
	root := f.Root()
	if g.version != nil {
		root.Attr("version", g.version)
	}
	row := root.Group("0/META/ROW")
	row.Dataset("id", nil, g.rowIDs)
	for _, fd := range g.rowFields {
		row.Dataset(fd.name, nil, fd.values)
	}
	col := root.Group("0/META/COL")
	col.Dataset("id", nil, g.colIDs)
	for _, fd := range g.colFields {
		col.Dataset(fd.name, nil, fd.values)
	}

	planes := [][]float32{g.value}
	if g.coverage != nil {
		planes = append(planes, g.coverage)
	}
	n := g.nRows * g.nCols
	data := make([]float32, len(planes)*n)
	for p, plane := range planes {
		for r := 0; r < g.nRows; r++ {
			for c := 0; c < g.nCols; c++ {
				data[p*n+c*g.nRows+r] = plane[r*g.nCols+c]
			}
		}
	}
	shape := []uint64{uint64(g.nCols), uint64(g.nRows)}
	if len(planes) == 2 {
		shape = append([]uint64{2}, shape...)
	}
	root.Dataset("0/DATA/0/matrix", shape, data, g.opts...)

	path := filepath.Join(t.TempDir(), "test.gctx")
	require.NoError(t, f.WriteFile(path))
	return path
}

// number returns the numeric suffix of ids such as "r3" or "c12".
func number(t *testing.T, id string) int {
	t.Helper()
	n, err := strconv.Atoi(id[1:])
	require.NoError(t, err, id)
	return n
}

// requireStandardCells checks every cell of a container parsed from
// standard against its row and column labels.
func requireStandardCells(t *testing.T, c *MatrixContainer) {
	t.Helper()
	require.NoError(t, c.Validate())
	for i, rid := range c.Value.RowIDs {
		r := number(t, rid)
		require.Equal(t, "chr"+strconv.Itoa(r), c.RowMeta.Field("chrom").Texts[i])
		for j, cid := range c.Value.ColIDs {
			col := number(t, cid)
			require.Equal(t, float32(10*r+col), c.Value.At(i, j), "value %s %s", rid, cid)
			require.Equal(t, float32(r*col), c.Coverage.At(i, j), "coverage %s %s", rid, cid)
		}
	}
}

func isNaN32(v float32) bool { return math.IsNaN(float64(v)) }
