package gctx

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(ids ...string) *MetadataTable {
	return &MetadataTable{IDs: ids, IndexName: "rid", FieldsName: "rhd"}
}

func TestResolveAxis(t *testing.T) {
	meta := table("a", "b", "c", "d", "e")
	tests := []struct {
		name     string
		sel      Selection
		wantRead []int
		wantPos  []int
	}{
		{"none", Selection{}, []int{0, 1, 2, 3, 4}, []int{0, 1, 2, 3, 4}},
		{"ids sorted", Selection{IDs: []string{"d", "a"}}, []int{0, 3}, []int{0, 3}},
		{"ids unsorted", Selection{IDs: []string{"d", "a"}, Unsorted: true}, []int{0, 3}, []int{3, 0}},
		{"indices unsorted", Selection{Indices: []int{4, 1, 2}, Unsorted: true}, []int{1, 2, 4}, []int{4, 1, 2}},
		{"duplicates", Selection{Indices: []int{3, 0, 3, 0}, Unsorted: true}, []int{0, 0, 3, 3}, []int{3, 0, 3, 0}},
		{"empty", Selection{Indices: []int{}}, []int{}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolveAxis(Rows, tt.sel, meta)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRead, r.Read)
			assert.Equal(t, tt.wantPos, r.Positions())
			assert.Equal(t, len(tt.wantRead), r.Len())
		})
	}
}

// Applying Order to the sorted read reproduces the caller's order.
func TestResolveRoundTrip(t *testing.T) {
	meta := table()
	for i := 0; i < 20; i++ {
		meta.IDs = append(meta.IDs, "id"+strconv.Itoa(i))
	}
	requests := [][]int{
		{19, 0, 7, 7, 3},
		{5},
		{2, 1, 0},
		{0, 1, 2},
		{11, 11, 11},
	}
	for _, req := range requests {
		ids := make([]string, len(req))
		for i, p := range req {
			ids[i] = meta.IDs[p]
		}
		sorted, err := ResolveAxis(Cols, Selection{IDs: ids}, meta)
		require.NoError(t, err)
		unsorted, err := ResolveAxis(Cols, Selection{IDs: ids, Unsorted: true}, meta)
		require.NoError(t, err)

		require.Equal(t, sorted.Read, unsorted.Read)
		readIDs := meta.Take(sorted.Read).IDs
		got := make([]string, len(unsorted.Order))
		for i, k := range unsorted.Order {
			got[i] = readIDs[k]
		}
		assert.Equal(t, ids, got)
	}
}

func TestResolve(t *testing.T) {
	rows, cols, err := Resolve(
		Selection{IDs: []string{"b"}},
		Selection{Indices: []int{1, 0}, Unsorted: true},
		table("a", "b"), table("x", "y"),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, rows.Positions())
	assert.Equal(t, []int{1, 0}, cols.Positions())

	// An axis without a table resolves to nil, but is still checked.
	rows, cols, err = Resolve(Selection{}, Selection{IDs: []string{"x"}}, table("a"), nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Nil(t, cols)

	_, _, err = Resolve(Selection{IDs: []string{"a"}, Indices: []int{0}}, Selection{}, nil, table("x"))
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestResolveErrors(t *testing.T) {
	meta := table("a", "b", "c")

	for _, sel := range []Selection{
		{IDs: []string{"a"}, Indices: []int{0}},
		{IDs: []string{"zz"}, Indices: []int{9}, Unsorted: true},
	} {
		_, err := ResolveAxis(Rows, sel, meta)
		assert.ErrorIs(t, err, ErrInvalidSelection)
	}

	_, err := ResolveAxis(Cols, Selection{IDs: []string{"q", "a", "r"}}, meta)
	var lerr *LookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, Cols, lerr.Axis)
	assert.Equal(t, []string{"q", "r"}, lerr.IDs)
	assert.Equal(t, `column ids not found in column metadata: "q", "r"`, err.Error())

	for _, unsorted := range []bool{false, true} {
		_, err = ResolveAxis(Rows, Selection{Indices: []int{3, 1, 5, -2}, Unsorted: unsorted}, meta)
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, []int{3, 5, -2}, lerr.Indices)
		assert.Equal(t, "row indices out of range [0, 2]: 3, 5, -2", err.Error())
	}
}

type label string

func (l label) String() string { return "L" + string(l) }

func TestCoerceIDs(t *testing.T) {
	got, err := CoerceIDs([]any{"a", 1, int64(-2), uint8(3), 1.5, 2.0, []byte("b"), label("x")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "-2", "3", "1.5", "2.0", "b", "Lx"}, got)

	_, err = CoerceIDs([]any{"a", true, nil, []int{1}, false, struct{}{}})
	var cerr *TypeCoercionError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, ErrTypeCoercion)
	assert.Equal(t, "string", cerr.Expected)
	assert.Equal(t, []string{"[]int", "bool", "nil", "struct {}"}, cerr.Types)
	assert.Equal(t, "ids cannot be converted to string: got []int, bool, nil, struct {}", err.Error())
}
