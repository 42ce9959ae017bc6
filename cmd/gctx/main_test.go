package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/h5build"
)

// writeFixture writes a 2x2 file with rows a, b and columns given by
// cols. Values are stored column-major per plane.
func writeFixture(t *testing.T, name string, cols []string) string {
	t.Helper()
	f := h5build.New()
	root := f.Root()
	root.Attr("version", "GCTX1.0")
	root.Group("0/META/ROW").Dataset("id", nil, []string{"b", "a"})
	root.Group("0/META/COL").Dataset("id", nil, cols)
	root.Group("0/META/COL").Dataset("dose", nil, []float64{1, 2})
	root.Dataset("0/DATA/0/matrix", []uint64{2, 2, 2}, []float32{
		// value: col 0 rows b, a; col 1 rows b, a
		1, 2, 3, 4,
		// coverage
		1, 1, 2, 2,
	})
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.WriteFile(path))
	return path
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr, log.NewNopLogger())
	return stdout.String(), stderr.String(), err
}

func TestView(t *testing.T) {
	path := writeFixture(t, "a.gctx", []string{"x", "y"})

	out, _, err := runCmd(t, "view", "-filter", "COL", path)
	require.NoError(t, err)
	assert.Equal(t, "0/META/COL/dose\n0/META/COL/id\n", out)

	out, _, err = runCmd(t, "view", "-l", "-filter", "matrix", path)
	require.NoError(t, err)
	assert.Equal(t, "0/DATA/0/matrix\t[2 2 2]\tfloat32\tcontiguous\n", out)
}

func TestParseDump(t *testing.T) {
	path := writeFixture(t, "a.gctx", []string{"x", "y"})

	out, _, err := runCmd(t, "parse", "-dump", "value", path)
	require.NoError(t, err)
	assert.Equal(t, "rid\tx\ty\nb\t1\t3\na\t2\t4\n", out)

	out, _, err = runCmd(t, "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "version\tGCTX1.0\n")
	assert.Contains(t, out, "cols\t2\tdose\n")
	assert.Contains(t, out, "fingerprint\t")

	out, _, err = runCmd(t, "parse", "-row-meta-only", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "fingerprint")
}

func TestSubset(t *testing.T) {
	path := writeFixture(t, "a.gctx", []string{"x", "y"})

	out, _, err := runCmd(t, "subset", "-rid", "a", "-rid", "b", "-cidx", "1", "-dump", "coverage", path)
	require.NoError(t, err)
	// File order wins unless -keep-order is given.
	assert.Equal(t, "rid\ty\nb\t2\na\t2\n", out)

	out, _, err = runCmd(t, "subset", "-rid", "a", "-rid", "b", "-keep-order", "-dump", "value", path)
	require.NoError(t, err)
	assert.Equal(t, "rid\tx\ty\na\t2\t4\nb\t1\t3\n", out)

	_, _, err = runCmd(t, "subset", "-ridx", "one", path)
	assert.Error(t, err)
	_, _, err = runCmd(t, "subset", "-rid", "zzz", path)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	a := writeFixture(t, "a.gctx", []string{"x", "y"})
	b := writeFixture(t, "b.gctx", []string{"z", "w"})

	out, _, err := runCmd(t, "merge", "-dump", "value", a, b)
	require.NoError(t, err)
	assert.Equal(t, "rid\tx\ty\tz\tw\na\t2\t4\t2\t4\nb\t1\t3\t1\t3\n", out)

	_, _, err = runCmd(t, "merge", a, a)
	assert.Error(t, err)

	out, _, err = runCmd(t, "merge", "-reset-cids", a, a)
	require.NoError(t, err)
	assert.Contains(t, out, "cols\t4\told_id,dose\n")
}

func TestUsage(t *testing.T) {
	_, _, err := runCmd(t)
	assert.ErrorIs(t, err, errUsage)

	_, stderr, err := runCmd(t, "frobnicate")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	_, _, err = runCmd(t, "parse")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = runCmd(t, "parse", "-dump", "other", "x.gctx")
	assert.ErrorIs(t, err, errUsage)
}
