// Package hdf5 reads HDF5 files: groups, datasets and attributes, with
// hyperslab and single-axis indexed reads of numeric datasets.
//
// Files are opened read-only with [Open] or [OpenReader]. Decoded chunks
// are kept in a per-file LRU cache, and read activity can be exported as
// Prometheus metrics through [WithMetrics].
package hdf5

import "errors"

var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrSelection   = errors.New("invalid selection")
	ErrClosed      = errors.New("file is closed")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth bounds the number of soft links followed while resolving a
// single path.
const MaxLinkDepth = 100
