package gctx

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// MaxValue bounds the value plane, which holds percentages.
const MaxValue = 100

// Matrix is a labelled row-major plane of float32. Missing cells are NaN.
type Matrix struct {
	RowIDs []string
	ColIDs []string
	Data   []float32
}

// NewMatrix returns a matrix over data, which must hold
// len(rowIDs)*len(colIDs) cells.
func NewMatrix(rowIDs, colIDs []string, data []float32) (*Matrix, error) {
	if len(data) != len(rowIDs)*len(colIDs) {
		return nil, fmt.Errorf("%w: %d cells for %d rows and %d columns",
			ErrDataIntegrity, len(data), len(rowIDs), len(colIDs))
	}
	return &Matrix{RowIDs: rowIDs, ColIDs: colIDs, Data: data}, nil
}

func (m *Matrix) Rows() int { return len(m.RowIDs) }

func (m *Matrix) Cols() int { return len(m.ColIDs) }

// At returns the cell at row i, column j.
func (m *Matrix) At(i, j int) float32 { return m.Data[i*len(m.ColIDs)+j] }

// Row returns row i. The slice aliases the matrix.
func (m *Matrix) Row(i int) []float32 {
	n := len(m.ColIDs)
	return m.Data[i*n : (i+1)*n]
}

// take copies the cells at the given row and column positions. A nil
// list keeps the whole axis.
func (m *Matrix) take(rows, cols []int) *Matrix {
	if rows == nil {
		rows = allPositions(m.Rows())
	}
	if cols == nil {
		cols = allPositions(m.Cols())
	}
	out := &Matrix{
		RowIDs: make([]string, len(rows)),
		ColIDs: make([]string, len(cols)),
		Data:   make([]float32, len(rows)*len(cols)),
	}
	for i, r := range rows {
		out.RowIDs[i] = m.RowIDs[r]
	}
	for j, c := range cols {
		out.ColIDs[j] = m.ColIDs[c]
	}
	for i, r := range rows {
		src := m.Row(r)
		dst := out.Data[i*len(cols) : (i+1)*len(cols)]
		for j, c := range cols {
			dst[j] = src[c]
		}
	}
	return out
}

func (m *Matrix) transpose() *Matrix {
	out := &Matrix{
		RowIDs: append([]string(nil), m.ColIDs...),
		ColIDs: append([]string(nil), m.RowIDs...),
		Data:   make([]float32, len(m.Data)),
	}
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			out.Data[j*m.Rows()+i] = m.At(i, j)
		}
	}
	return out
}

// MatrixContainer is a parsed GCTX file: the value and coverage planes
// and the metadata of their rows and columns, in the same order.
// Containers parsed with RowMetaOnly or ColMetaOnly carry only the
// requested tables.
type MatrixContainer struct {
	Value      *Matrix
	Coverage   *Matrix
	RowMeta    *MetadataTable
	ColMeta    *MetadataTable
	SourcePath string
	Version    string
}

// Rows returns the number of rows, or 0 without row metadata.
func (c *MatrixContainer) Rows() int {
	if c.RowMeta == nil {
		return 0
	}
	return c.RowMeta.Len()
}

// Cols returns the number of columns, or 0 without column metadata.
func (c *MatrixContainer) Cols() int {
	if c.ColMeta == nil {
		return 0
	}
	return c.ColMeta.Len()
}

// Subset returns a new container holding the given row and column
// positions, in that order. A nil list keeps the whole axis. c is not
// modified.
func (c *MatrixContainer) Subset(rows, cols []int) (*MatrixContainer, error) {
	if err := checkPositions(Rows, rows, c.Rows()); err != nil {
		return nil, err
	}
	if err := checkPositions(Cols, cols, c.Cols()); err != nil {
		return nil, err
	}
	out := &MatrixContainer{SourcePath: c.SourcePath, Version: c.Version}
	if c.RowMeta != nil {
		out.RowMeta = c.RowMeta.Take(orAll(rows, c.Rows()))
	}
	if c.ColMeta != nil {
		out.ColMeta = c.ColMeta.Take(orAll(cols, c.Cols()))
	}
	if c.Value != nil {
		out.Value = c.Value.take(rows, cols)
	}
	if c.Coverage != nil {
		out.Coverage = c.Coverage.take(rows, cols)
	}
	return out, nil
}

func checkPositions(axis Axis, positions []int, n int) error {
	var bad []int
	for _, p := range positions {
		if p < 0 || p >= n {
			bad = append(bad, p)
		}
	}
	if len(bad) > 0 {
		return &LookupError{Axis: axis, Indices: bad, Max: n - 1}
	}
	return nil
}

func orAll(positions []int, n int) []int {
	if positions == nil {
		return allPositions(n)
	}
	return positions
}

// Transpose returns a new container with rows and columns swapped. The
// metadata tables trade places unchanged.
func (c *MatrixContainer) Transpose() *MatrixContainer {
	out := &MatrixContainer{SourcePath: c.SourcePath, Version: c.Version}
	if c.ColMeta != nil {
		out.RowMeta = c.ColMeta.Clone()
	}
	if c.RowMeta != nil {
		out.ColMeta = c.RowMeta.Clone()
	}
	if c.Value != nil {
		out.Value = c.Value.transpose()
	}
	if c.Coverage != nil {
		out.Coverage = c.Coverage.transpose()
	}
	return out
}

// Validate checks that both planes are labelled by the metadata tables,
// that no value exceeds MaxValue and that every present coverage is a
// whole number. Every offending cell is listed in the returned
// *IntegrityError.
func (c *MatrixContainer) Validate() error {
	if err := c.checkLabels(); err != nil {
		return err
	}
	if err := checkValues(c.Value); err != nil {
		return err
	}
	return checkCoverage(c.Coverage)
}

func (c *MatrixContainer) checkLabels() error {
	var details []string
	for _, p := range []struct {
		name string
		m    *Matrix
	}{{"value", c.Value}, {"coverage", c.Coverage}} {
		if p.m == nil {
			continue
		}
		if len(p.m.Data) != p.m.Rows()*p.m.Cols() {
			details = append(details, fmt.Sprintf("%s plane has %d cells for %dx%d", p.name, len(p.m.Data), p.m.Rows(), p.m.Cols()))
		}
		if c.RowMeta != nil && !equalIDs(p.m.RowIDs, c.RowMeta.IDs) {
			details = append(details, p.name+" plane row ids differ from row metadata")
		}
		if c.ColMeta != nil && !equalIDs(p.m.ColIDs, c.ColMeta.IDs) {
			details = append(details, p.name+" plane column ids differ from column metadata")
		}
	}
	for _, t := range []*MetadataTable{c.RowMeta, c.ColMeta} {
		if t == nil {
			continue
		}
		for _, f := range t.Fields {
			if f.Len() != t.Len() {
				details = append(details, fmt.Sprintf("%s field %s has %d values for %d ids", t.IndexName, f.Name, f.Len(), t.Len()))
			}
		}
	}
	if len(details) > 0 {
		return &IntegrityError{Check: "misaligned container", Details: details}
	}
	return nil
}

func checkValues(m *Matrix) error {
	if m == nil {
		return nil
	}
	var bad []string
	for i, v := range m.Data {
		if v > MaxValue {
			bad = append(bad, cell(m, i, v))
		}
	}
	if len(bad) > 0 {
		return &IntegrityError{Check: "values above " + strconv.Itoa(MaxValue), Details: bad}
	}
	return nil
}

func checkCoverage(m *Matrix) error {
	if m == nil {
		return nil
	}
	var bad []string
	for i, v := range m.Data {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		if f < 0 || math.IsInf(f, 0) || f != math.Trunc(f) {
			bad = append(bad, cell(m, i, v))
		}
	}
	if len(bad) > 0 {
		return &IntegrityError{Check: "coverage not a non-negative integer", Details: bad}
	}
	return nil
}

func cell(m *Matrix, i int, v float32) string {
	n := m.Cols()
	return fmt.Sprintf("(%s, %s)=%s", m.RowIDs[i/n], m.ColIDs[i%n], strconv.FormatFloat(float64(v), 'g', -1, 32))
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Fingerprint hashes the ids and cells of both planes. Containers with
// the same labels and cells have the same fingerprint; all NaNs hash
// alike.
func (c *MatrixContainer) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [4]byte
	writeIDs := func(ids []string) {
		binary.LittleEndian.PutUint32(buf[:], uint32(len(ids)))
		h.Write(buf[:])
		for _, id := range ids {
			binary.LittleEndian.PutUint32(buf[:], uint32(len(id)))
			h.Write(buf[:])
			h.WriteString(id)
		}
	}
	for _, t := range []*MetadataTable{c.RowMeta, c.ColMeta} {
		if t == nil {
			writeIDs(nil)
			continue
		}
		writeIDs(t.IDs)
	}
	nan := math.Float32bits(float32(math.NaN()))
	for _, m := range []*Matrix{c.Value, c.Coverage} {
		if m == nil {
			h.Write([]byte{0})
			continue
		}
		h.Write([]byte{1})
		for _, v := range m.Data {
			bits := math.Float32bits(v)
			if v != v {
				bits = nan
			}
			binary.LittleEndian.PutUint32(buf[:], bits)
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
