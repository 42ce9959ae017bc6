// Package h5build assembles small HDF5 files in memory for tests.
//
// A File is described as a tree of groups, datasets, soft links and
// attributes, then encoded with the newest file format structures: a
// version 2 superblock, version 2 object headers with link messages,
// fixed array chunk indexes and global heap collections for
// variable-length strings. Chunks go through the same filter
// implementations the reader uses.
//
//	f := h5build.New()
//	f.Root().Attr("version", "GCTX1.0")
//	f.Root().Dataset("0/META/ROW/id", nil, []string{"r1", "r2"})
//	f.Root().Dataset("0/DATA/0/matrix", []uint64{2, 3, 2}, values,
//		h5build.Chunks(1, 3, 2), h5build.Deflate(4))
//	data, err := f.Bytes()
package h5build
