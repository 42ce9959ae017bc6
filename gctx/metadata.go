package gctx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-gctx/hdf5"
)

// Sentinel marks a missing metadata value in GCTX storage, as a number or
// as the string "-666".
const Sentinel = -666

var sentinelText = strconv.Itoa(Sentinel)

// Axis selects the rows or the columns of a matrix.
type Axis int

const (
	Rows Axis = iota
	Cols
)

func (a Axis) String() string {
	if a == Cols {
		return "column"
	}
	return "row"
}

// group is the name of the axis metadata group under /0/META.
func (a Axis) group() string {
	if a == Cols {
		return "COL"
	}
	return "ROW"
}

func (a Axis) indexName() string {
	if a == Cols {
		return "cid"
	}
	return "rid"
}

func (a Axis) fieldsName() string {
	if a == Cols {
		return "chd"
	}
	return "rhd"
}

// IDField is the metadata dataset holding an axis's ids.
const IDField = "id"

// FieldKind is the inferred type of a metadata field.
type FieldKind int

const (
	Numeric FieldKind = iota
	Text
)

func (k FieldKind) String() string {
	if k == Text {
		return "text"
	}
	return "numeric"
}

// Field is one named metadata column. A numeric field holds Numbers, with
// NaN for missing values. A text field holds Texts, with Valid false for
// missing values.
type Field struct {
	Name    string
	Kind    FieldKind
	Numbers []float64
	Texts   []string
	Valid   []bool
}

// NewNumericField returns a numeric field over values.
func NewNumericField(name string, values []float64) *Field {
	return &Field{Name: name, Kind: Numeric, Numbers: values}
}

// NewTextField returns a text field over values with nothing missing.
func NewTextField(name string, values []string) *Field {
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}
	return &Field{Name: name, Kind: Text, Texts: values, Valid: valid}
}

func (f *Field) Len() int {
	if f.Kind == Numeric {
		return len(f.Numbers)
	}
	return len(f.Texts)
}

// Missing reports whether element i is missing.
func (f *Field) Missing(i int) bool {
	if f.Kind == Numeric {
		return math.IsNaN(f.Numbers[i])
	}
	return !f.Valid[i]
}

// Format renders element i; missing values render as "nan".
func (f *Field) Format(i int) string {
	if f.Kind == Numeric {
		return formatFloat(f.Numbers[i])
	}
	if !f.Valid[i] {
		return "nan"
	}
	return f.Texts[i]
}

// take returns the elements at positions, in that order.
func (f *Field) take(positions []int) *Field {
	out := &Field{Name: f.Name, Kind: f.Kind}
	if f.Kind == Numeric {
		out.Numbers = make([]float64, len(positions))
		for i, p := range positions {
			out.Numbers[i] = f.Numbers[p]
		}
		return out
	}
	out.Texts = make([]string, len(positions))
	out.Valid = make([]bool, len(positions))
	for i, p := range positions {
		out.Texts[i] = f.Texts[p]
		out.Valid[i] = f.Valid[p]
	}
	return out
}

// text returns f as a text field, rendering numbers.
func (f *Field) text() *Field {
	if f.Kind == Text {
		return f
	}
	out := &Field{Name: f.Name, Kind: Text, Texts: make([]string, len(f.Numbers)), Valid: make([]bool, len(f.Numbers))}
	for i, v := range f.Numbers {
		if !math.IsNaN(v) {
			out.Texts[i] = formatFloat(v)
			out.Valid[i] = true
		}
	}
	return out
}

// equal compares element i of f with element j of g, treating two
// missing values as equal.
func (f *Field) equal(i int, g *Field, j int) bool {
	if f.Missing(i) || g.Missing(j) {
		return f.Missing(i) && g.Missing(j)
	}
	return f.Format(i) == g.Format(j)
}

// MetadataTable labels one axis of a matrix: an id per entry and any
// number of fields, all of the same length.
type MetadataTable struct {
	IDs []string
	// IndexName is "rid" or "cid", FieldsName "rhd" or "chd".
	IndexName  string
	FieldsName string
	Fields     []*Field
}

// Len returns the number of ids.
func (t *MetadataTable) Len() int { return len(t.IDs) }

// Field returns the named field, or nil.
func (t *MetadataTable) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldNames returns the field names in order.
func (t *MetadataTable) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// Take returns a new table with the entries at positions, in that order.
// Positions must be in range.
func (t *MetadataTable) Take(positions []int) *MetadataTable {
	out := &MetadataTable{
		IDs:        make([]string, len(positions)),
		IndexName:  t.IndexName,
		FieldsName: t.FieldsName,
		Fields:     make([]*Field, len(t.Fields)),
	}
	for i, p := range positions {
		out.IDs[i] = t.IDs[p]
	}
	for i, f := range t.Fields {
		out.Fields[i] = f.take(positions)
	}
	return out
}

// Clone returns a deep copy of t.
func (t *MetadataTable) Clone() *MetadataTable { return t.Take(allPositions(t.Len())) }

// positions maps each id to its first position.
func (t *MetadataTable) positions() map[string]int {
	m := make(map[string]int, len(t.IDs))
	for i, id := range t.IDs {
		if _, ok := m[id]; !ok {
			m[id] = i
		}
	}
	return m
}

// ReadMetadata reads the metadata group of one axis. Every value is first
// rendered as a string and each field then becomes numeric only if all of
// its values parse as numbers, so storage types do not leak into the
// result. The id dataset becomes the string index.
//
// Sentinel values are normalized per convertNeg666: with conversion, the
// number -666 and the string "-666" become missing; without it, every
// sentinel becomes the string "-666".
func ReadMetadata(g *hdf5.Group, axis Axis, convertNeg666 bool) (*MetadataTable, error) {
	datasets, err := g.Datasets()
	if err != nil {
		return nil, fmt.Errorf("reading %s metadata: %w", axis, err)
	}
	t := &MetadataTable{IndexName: axis.indexName(), FieldsName: axis.fieldsName()}
	var ids []string
	var raw [][]string
	var names []string
	for _, ds := range datasets {
		values, err := renderDataset(ds)
		if err != nil {
			return nil, fmt.Errorf("reading %s metadata: %w", axis, err)
		}
		if ds.Name() == IDField {
			ids = values
			continue
		}
		names = append(names, ds.Name())
		raw = append(raw, values)
	}
	if ids == nil {
		return nil, fmt.Errorf("reading %s metadata %s: %w: %s", axis, g.Path(), hdf5.ErrNotFound, IDField)
	}
	t.IDs = ids
	for i, values := range raw {
		if len(values) != len(ids) {
			return nil, &IntegrityError{
				Check:   fmt.Sprintf("%s metadata field length", axis),
				Details: []string{fmt.Sprintf("%s has %d values for %d ids", names[i], len(values), len(ids))},
			}
		}
		t.Fields = append(t.Fields, inferField(names[i], values, convertNeg666))
	}
	return t, nil
}

// renderDataset returns every element of ds as a string.
func renderDataset(ds *hdf5.Dataset) ([]string, error) {
	v, err := ds.Values()
	if err != nil {
		return nil, err
	}
	switch vals := v.(type) {
	case []string:
		return vals, nil
	case []int64:
		out := make([]string, len(vals))
		for i, x := range vals {
			out[i] = strconv.FormatInt(x, 10)
		}
		return out, nil
	case []uint64:
		out := make([]string, len(vals))
		for i, x := range vals {
			out[i] = strconv.FormatUint(x, 10)
		}
		return out, nil
	case []float64:
		out := make([]string, len(vals))
		for i, x := range vals {
			out[i] = formatFloat(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: unexpected element type %T", ds.Path(), v)
}

// inferField types a field from its rendered values and normalizes
// sentinels.
func inferField(name string, values []string, convertNeg666 bool) *Field {
	numbers := make([]float64, len(values))
	numeric := true
	for i, s := range values {
		x, ok := parseNumber(s)
		if !ok {
			numeric = false
			break
		}
		numbers[i] = x
	}
	if numeric {
		f := NewNumericField(name, numbers)
		for i, x := range numbers {
			if x == Sentinel {
				if !convertNeg666 {
					// A literal sentinel string cannot live in a numeric
					// field.
					return textField(name, values, convertNeg666, true)
				}
				f.Numbers[i] = math.NaN()
			}
		}
		return f
	}
	return textField(name, values, convertNeg666, false)
}

// textField builds a text field from rendered values. Values of a field
// that was read as numbers match the sentinel by value, so "-666.0" counts;
// values of a string field only match the exact text "-666".
func textField(name string, values []string, convertNeg666, numeric bool) *Field {
	f := NewTextField(name, make([]string, len(values)))
	for i, s := range values {
		if numeric {
			if x, ok := parseNumber(s); ok && x == Sentinel {
				s = sentinelText
			}
		}
		v, missing := NormalizeSentinel(s, convertNeg666)
		f.Texts[i] = v
		f.Valid[i] = !missing
	}
	return f
}

// NormalizeSentinel applies the missing-value policy to one rendered
// value. Only the exact text "-666" is the sentinel. With conversion it is
// reported missing; without it it is returned unchanged. Other values pass
// through.
func NormalizeSentinel(s string, convertNeg666 bool) (string, bool) {
	if s != sentinelText {
		return s, false
	}
	if convertNeg666 {
		return "", true
	}
	return sentinelText, false
}

// parseNumber parses s the way numeric inference does: decimal and
// exponent forms plus nan and inf spellings.
func parseNumber(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "_xXpP") {
		return 0, false
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

// formatFloat renders a float in its shortest round-trip form, keeping a
// decimal point on integral values.
func formatFloat(x float64) string {
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func allPositions(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
