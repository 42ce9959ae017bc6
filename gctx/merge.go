package gctx

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// OldIDField receives the previous ids when ids are reset.
const OldIDField = "old_id"

// Direction tells ResetIDs which axis was concatenated.
type Direction int

const (
	// Horizontal resets column ids.
	Horizontal Direction = iota
	// Vertical resets row ids.
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vert"
	}
	return "horiz"
}

// MergeOption configures Merge.
type MergeOption func(*mergeOptions)

type mergeOptions struct {
	resetColumnIDs bool
	metrics        *Metrics
}

// WithResetColumnIDs replaces the merged column ids with "0".."n-1",
// keeping the originals in OldIDField, instead of failing on duplicates.
func WithResetColumnIDs() MergeOption {
	return func(o *mergeOptions) { o.resetColumnIDs = true }
}

// WithMergeMetrics counts merges in m.
func WithMergeMetrics(m *Metrics) MergeOption {
	return func(o *mergeOptions) { o.metrics = m }
}

// Merge inner-joins containers on their row ids and places their columns
// side by side, in argument order. The result keeps the rows present in
// every container, in ascending id order; it has no rows when the
// containers share none. Row metadata fields are combined, and a field
// that two containers disagree on fails the merge. Column metadata is
// stacked, with missing values where a container lacks a field. No input
// is modified.
func Merge(containers []*MatrixContainer, opts ...MergeOption) (*MatrixContainer, error) {
	o := &mergeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if len(containers) == 0 {
		return nil, fmt.Errorf("%w: no containers to merge", ErrInvalidSelection)
	}
	for i, c := range containers {
		if c == nil || c.RowMeta == nil || c.ColMeta == nil || c.Value == nil || c.Coverage == nil {
			return nil, fmt.Errorf("%w: container %d has no matrix", ErrInvalidSelection, i)
		}
		if err := c.checkLabels(); err != nil {
			return nil, fmt.Errorf("container %d: %w", i, err)
		}
	}

	common := commonRowIDs(containers)
	parts := make([]*MatrixContainer, len(containers))
	for i, c := range containers {
		lookup := c.RowMeta.positions()
		rows := make([]int, len(common))
		for k, id := range common {
			rows[k] = lookup[id]
		}
		sub, err := c.Subset(rows, nil)
		if err != nil {
			return nil, err
		}
		parts[i] = sub
	}

	out, err := hstack(parts)
	if err != nil {
		return nil, err
	}
	if dups := duplicates(out.ColMeta.IDs); len(dups) > 0 {
		if !o.resetColumnIDs {
			return nil, &IntegrityError{Check: "duplicate column ids", Details: dups}
		}
		if err := ResetIDs(out.ColMeta, []*Matrix{out.Value, out.Coverage}, Horizontal); err != nil {
			return nil, err
		}
	}
	if o.metrics != nil {
		o.metrics.Merges.Inc()
	}
	return out, nil
}

// commonRowIDs returns the row ids found in every container, sorted.
func commonRowIDs(containers []*MatrixContainer) []string {
	common := make(map[string]bool)
	for _, id := range containers[0].RowMeta.IDs {
		common[id] = true
	}
	for _, c := range containers[1:] {
		next := make(map[string]bool)
		for _, id := range c.RowMeta.IDs {
			if common[id] {
				next[id] = true
			}
		}
		common = next
	}
	ids := make([]string, 0, len(common))
	for id := range common {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// hstack concatenates the columns of containers that share their row ids.
func hstack(parts []*MatrixContainer) (*MatrixContainer, error) {
	rowMeta, err := joinRowMeta(parts)
	if err != nil {
		return nil, err
	}
	out := &MatrixContainer{
		RowMeta: rowMeta,
		ColMeta: stackColMeta(parts),
		Version: parts[0].Version,
	}
	if len(parts) == 1 {
		out.SourcePath = parts[0].SourcePath
	}
	nRows, nCols := out.RowMeta.Len(), out.ColMeta.Len()
	out.Value = &Matrix{RowIDs: rowMeta.IDs, ColIDs: out.ColMeta.IDs, Data: make([]float32, nRows*nCols)}
	out.Coverage = &Matrix{RowIDs: rowMeta.IDs, ColIDs: out.ColMeta.IDs, Data: make([]float32, nRows*nCols)}
	for i := 0; i < nRows; i++ {
		off := 0
		for _, p := range parts {
			n := p.Cols()
			copy(out.Value.Row(i)[off:off+n], p.Value.Row(i))
			copy(out.Coverage.Row(i)[off:off+n], p.Coverage.Row(i))
			off += n
		}
	}
	return out, nil
}

// joinRowMeta combines the row fields of parts, which share their ids.
// Fields keep the order they are first seen in.
func joinRowMeta(parts []*MatrixContainer) (*MetadataTable, error) {
	out := parts[0].RowMeta.Clone()
	var conflicts []string
	for _, p := range parts[1:] {
		for _, f := range p.RowMeta.Fields {
			have := out.Field(f.Name)
			if have == nil {
				out.Fields = append(out.Fields, f.take(allPositions(f.Len())))
				continue
			}
			for i := 0; i < f.Len(); i++ {
				if !have.equal(i, f, i) {
					conflicts = append(conflicts, fmt.Sprintf("%s at %s", f.Name, out.IDs[i]))
					break
				}
			}
		}
	}
	if len(conflicts) > 0 {
		return nil, &IntegrityError{Check: "row metadata differs between containers", Details: conflicts}
	}
	return out, nil
}

// stackColMeta appends the column tables of parts. A field absent from a
// part is missing for its columns, and a field that is numeric in one
// part and text in another becomes text.
func stackColMeta(parts []*MatrixContainer) *MetadataTable {
	first := parts[0].ColMeta
	out := &MetadataTable{IndexName: first.IndexName, FieldsName: first.FieldsName}
	var names []string
	kinds := make(map[string]FieldKind)
	for _, p := range parts {
		out.IDs = append(out.IDs, p.ColMeta.IDs...)
		for _, f := range p.ColMeta.Fields {
			k, seen := kinds[f.Name]
			if !seen {
				names = append(names, f.Name)
				kinds[f.Name] = f.Kind
				continue
			}
			if k != f.Kind {
				kinds[f.Name] = Text
			}
		}
	}
	for _, name := range names {
		field := &Field{Name: name, Kind: kinds[name]}
		for _, p := range parts {
			n := p.ColMeta.Len()
			f := p.ColMeta.Field(name)
			switch {
			case f == nil && field.Kind == Numeric:
				field.Numbers = append(field.Numbers, missingNumbers(n)...)
			case f == nil:
				field.Texts = append(field.Texts, make([]string, n)...)
				field.Valid = append(field.Valid, make([]bool, n)...)
			case field.Kind == Numeric:
				field.Numbers = append(field.Numbers, f.Numbers...)
			default:
				t := f.text()
				field.Texts = append(field.Texts, t.Texts...)
				field.Valid = append(field.Valid, t.Valid...)
			}
		}
		out.Fields = append(out.Fields, field)
	}
	return out
}

func missingNumbers(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// duplicates returns every id that occurs more than once, in order of
// first repetition.
func duplicates(ids []string) []string {
	count := make(map[string]int, len(ids))
	var dups []string
	for _, id := range ids {
		count[id]++
		if count[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

// ResetIDs replaces the ids of meta with "0".."n-1" and moves the old ids
// into a leading OldIDField text field. The same ids are then applied to
// the matching axis of every plane: columns for Horizontal, rows for
// Vertical. meta and planes are modified in place.
//
// Each plane's labels on that axis must equal meta's ids beforehand;
// otherwise nothing is changed and an *IntegrityError is returned.
func ResetIDs(meta *MetadataTable, planes []*Matrix, dir Direction) error {
	var mismatched []string
	for i, m := range planes {
		labels := m.ColIDs
		if dir == Vertical {
			labels = m.RowIDs
		}
		if !equalIDs(labels, meta.IDs) {
			mismatched = append(mismatched, "plane "+strconv.Itoa(i))
		}
	}
	if len(mismatched) > 0 {
		return &IntegrityError{
			Check:   fmt.Sprintf("%s ids do not match metadata before reset", dir),
			Details: mismatched,
		}
	}
	if meta.Field(OldIDField) != nil {
		return &IntegrityError{Check: "cannot reset ids", Details: []string{OldIDField + " field already present"}}
	}

	old := NewTextField(OldIDField, append([]string(nil), meta.IDs...))
	meta.Fields = append([]*Field{old}, meta.Fields...)
	meta.IDs = make([]string, len(old.Texts))
	for i := range meta.IDs {
		meta.IDs[i] = strconv.Itoa(i)
	}
	for _, m := range planes {
		ids := append([]string(nil), meta.IDs...)
		if dir == Vertical {
			m.RowIDs = ids
			continue
		}
		m.ColIDs = ids
	}
	return nil
}
