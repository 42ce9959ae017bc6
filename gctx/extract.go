package gctx

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-gctx/hdf5"
)

// MatrixPath is the payload dataset.
const MatrixPath = "/0/DATA/0/matrix"

// extractPlanes reads the value and coverage planes at the given sorted
// row and column positions. The payload is stored as [plane][col][row];
// both results are row-major len(rows) x len(cols). A 2-d payload has no
// coverage plane and yields an all-NaN one.
//
// When every position is selected the payload is read whole. Otherwise
// the axis whose indexed read produces the smaller intermediate is
// reduced in storage and the other one in memory.
func extractPlanes(ds *hdf5.Dataset, rows, cols []int, nRows, nCols int) (value, coverage []float32, err error) {
	shape := ds.Shape()
	rank := len(shape)
	if (rank != 2 && rank != 3) || shape[rank-2] != uint64(nCols) || shape[rank-1] != uint64(nRows) || (rank == 3 && shape[0] == 0) {
		return nil, nil, &IntegrityError{
			Check:   "payload shape",
			Details: []string{fmt.Sprintf("%s has shape %v for %d rows and %d columns", ds.Path(), shape, nRows, nCols)},
		}
	}
	planes := 1
	if rank == 3 {
		planes = min(int(shape[0]), 2)
	}

	var (
		block     []float32
		blockCols int
		blockRows int
		pickRows  = rows
		pickCols  = cols
	)
	switch {
	case len(rows) == 0 || len(cols) == 0:
		value = []float32{}
		return value, missingPlane(0), nil
	case isRange(rows, nRows) && isRange(cols, nCols):
		block, err = ds.ReadFloat32()
		blockCols, blockRows = nCols, nRows
	case nCols*len(rows) < nRows*len(cols):
		block, err = ds.ReadIndexedFloat32(rank-1, toUint64(rows))
		blockCols, blockRows = nCols, len(rows)
		pickRows = allPositions(len(rows))
	default:
		block, err = ds.ReadIndexedFloat32(rank-2, toUint64(cols))
		blockCols, blockRows = len(cols), nRows
		pickCols = allPositions(len(cols))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	planeStride := blockCols * blockRows

	value = pick(block[:planeStride], blockRows, pickRows, pickCols)
	if planes < 2 {
		return value, missingPlane(len(rows) * len(cols)), nil
	}
	coverage = pick(block[planeStride:2*planeStride], blockRows, pickRows, pickCols)
	return value, coverage, nil
}

// pick gathers a row-major rows x cols matrix out of one plane stored as
// [col][row] with blockRows entries per column.
func pick(plane []float32, blockRows int, rows, cols []int) []float32 {
	out := make([]float32, len(rows)*len(cols))
	for i, r := range rows {
		for j, c := range cols {
			out[i*len(cols)+j] = plane[c*blockRows+r]
		}
	}
	return out
}

func missingPlane(n int) []float32 {
	out := make([]float32, n)
	nan := float32(math.NaN())
	for i := range out {
		out[i] = nan
	}
	return out
}

// isRange reports whether positions is exactly 0..n-1.
func isRange(positions []int, n int) bool {
	if len(positions) != n {
		return false
	}
	for i, p := range positions {
		if p != i {
			return false
		}
	}
	return true
}

func toUint64(positions []int) []uint64 {
	out := make([]uint64, len(positions))
	for i, p := range positions {
		out[i] = uint64(p)
	}
	return out
}
