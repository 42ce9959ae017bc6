// Package dtype converts raw HDF5 element bytes into Go values.
//
// Numeric classes map to int64, uint64 or float64 (or float32 for matrix
// payloads); enums convert through their base type. Fixed-length strings
// are trimmed according to their padding, and variable-length strings are
// resolved through a caller supplied [VarLenResolver], which keeps this
// package independent of how global heaps are read.
//
//	HDF5 class          Kind
//	fixed-point         KindInt / KindUint
//	float               KindFloat
//	string              KindString
//	variable-length str KindString
//	enum                kind of the base type
package dtype
