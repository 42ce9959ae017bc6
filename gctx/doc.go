// Package gctx parses GCTX files: HDF5 containers holding a methylation
// value plane, a coverage plane and the row and column metadata tables
// that label them.
//
//	/version              root attribute, string or array (element 0)
//	/0/META/ROW/id        row ids, plus any number of row fields
//	/0/META/COL/id        column ids, plus any number of column fields
//	/0/DATA/0/matrix      shape (2, cols, rows) or (cols, rows)
//
// The payload is stored transposed: matrix[plane][col][row]. [Parse] reads
// the metadata, resolves the requested rows and columns, reads only the
// part of the payload the selection needs and returns a [MatrixContainer]
// in the requested order.
//
//	c, err := gctx.Parse("samples.gctx",
//		gctx.WithRows(gctx.Selection{IDs: []string{"cg02", "cg01"}, Unsorted: true}),
//		gctx.WithConvertNeg666(true),
//	)
//
// Parsed containers can be subset with [MatrixContainer.Subset], joined on
// their rows with [Merge] and relabelled with [ResetIDs]. Containers are
// never modified by these operations except by ResetIDs, which works in
// place.
package gctx
