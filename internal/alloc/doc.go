// Package alloc hands out file space for HDF5 structures written by the
// test fixture builder.
//
// Space is append-only: every allocation starts at the current end of
// file, which then advances. Each region records a tag naming what was
// placed there, so a failing fixture can be mapped back to the structure
// that occupies an address.
//
//	a := alloc.New(48)                  // after a v2 superblock
//	hdr := a.Alloc(120, "OHDR /")
//	data := a.AllocAligned(800, 8, "/x")
package alloc
