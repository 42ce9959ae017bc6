// Package superblock locates and parses the HDF5 superblock.
//
// The signature 0x89 'H' 'D' 'F' '\r' '\n' 0x1a '\n' is searched at offsets
// 0, 512, 1024 and 2048. Versions 0 and 1 describe the root group with a
// symbol table entry whose scratch pad caches the root B-tree and local heap
// addresses; versions 2 and 3 point straight at the root object header and
// end with a lookup3 checksum.
//
//	sb, err := superblock.Read(f)
//	if errors.Is(err, superblock.ErrNotHDF5) {
//		// not an HDF5 file
//	}
//	r := binary.NewReader(f, sb.ReaderConfig())
package superblock
