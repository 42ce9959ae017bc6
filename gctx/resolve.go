package gctx

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Selection restricts one axis. A nil IDs and a nil Indices select every
// entry; a non-nil empty list selects none. Setting both is an error.
//
// Results are in ascending position order unless Unsorted is set, in
// which case they follow the order of IDs or Indices, duplicates
// included.
type Selection struct {
	IDs      []string
	Indices  []int
	Unsorted bool
}

// Resolution is a resolved axis selection. Read holds the positions to
// read from storage, in ascending order. Order, when not nil, holds for
// each requested entry its position within Read, so that element i of
// the caller's order is element Order[i] of the sorted read.
type Resolution struct {
	Read  []int
	Order []int
}

// Positions returns the selected positions in the caller's order.
func (r *Resolution) Positions() []int {
	if r.Order == nil {
		return r.Read
	}
	out := make([]int, len(r.Order))
	for i, k := range r.Order {
		out[i] = r.Read[k]
	}
	return out
}

// Len returns the number of selected entries.
func (r *Resolution) Len() int { return len(r.Read) }

// Resolve resolves the row and column selections against their tables.
// An axis whose table is nil resolves to nil.
func Resolve(rowSel, colSel Selection, rowMeta, colMeta *MetadataTable) (rows, cols *Resolution, err error) {
	if rows, err = ResolveAxis(Rows, rowSel, rowMeta); err != nil {
		return nil, nil, err
	}
	if cols, err = ResolveAxis(Cols, colSel, colMeta); err != nil {
		return nil, nil, err
	}
	return rows, cols, nil
}

// ResolveAxis turns sel into storage positions of meta. Unknown ids are
// reported together in one *LookupError, as are indices outside
// [0, meta.Len()).
func ResolveAxis(axis Axis, sel Selection, meta *MetadataTable) (*Resolution, error) {
	if sel.IDs != nil && sel.Indices != nil {
		return nil, fmt.Errorf("%w: both ids and indices given for the %s axis", ErrInvalidSelection, axis)
	}
	if meta == nil {
		return nil, nil
	}

	var positions []int
	switch {
	case sel.IDs != nil:
		lookup := meta.positions()
		positions = make([]int, len(sel.IDs))
		var missing []string
		seen := make(map[string]bool)
		for i, id := range sel.IDs {
			p, ok := lookup[id]
			if !ok {
				if !seen[id] {
					seen[id] = true
					missing = append(missing, id)
				}
				continue
			}
			positions[i] = p
		}
		if len(missing) > 0 {
			return nil, &LookupError{Axis: axis, IDs: missing, Max: meta.Len() - 1}
		}
	case sel.Indices != nil:
		var bad []int
		for _, p := range sel.Indices {
			if p < 0 || p >= meta.Len() {
				bad = append(bad, p)
			}
		}
		if len(bad) > 0 {
			return nil, &LookupError{Axis: axis, Indices: bad, Max: meta.Len() - 1}
		}
		positions = append([]int(nil), sel.Indices...)
	default:
		return &Resolution{Read: allPositions(meta.Len())}, nil
	}
	return permutation(positions, sel.Unsorted), nil
}

// permutation sorts positions for reading and, when keepOrder is set,
// records where each requested position landed.
func permutation(positions []int, keepOrder bool) *Resolution {
	idx := allPositions(len(positions))
	sort.SliceStable(idx, func(a, b int) bool { return positions[idx[a]] < positions[idx[b]] })
	r := &Resolution{Read: make([]int, len(positions))}
	for k, i := range idx {
		r.Read[k] = positions[i]
	}
	if keepOrder {
		r.Order = make([]int, len(positions))
		for k, i := range idx {
			r.Order[i] = k
		}
	}
	return r
}

// CoerceIDs converts caller-supplied ids to the string index type.
// Strings, byte slices, fmt.Stringers, integers and floats convert; any
// other value fails the whole list with a *TypeCoercionError naming each
// offending type once.
func CoerceIDs(values []any) ([]string, error) {
	out := make([]string, len(values))
	bad := make(map[string]bool)
	for i, v := range values {
		s, ok := coerceID(v)
		if !ok {
			bad[typeName(v)] = true
			continue
		}
		out[i] = s
	}
	if len(bad) > 0 {
		types := make([]string, 0, len(bad))
		for t := range bad {
			types = append(types, t)
		}
		sort.Strings(types)
		return nil, &TypeCoercionError{Expected: "string", Types: types}
	}
	return out, nil
}

func coerceID(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		return x.String(), true
	case float32:
		return formatFloat(float64(x)), true
	case float64:
		return formatFloat(x), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	}
	return "", false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
