// Package heap reads the two heap structures a GCTX file can contain.
//
// # Local Heaps
//
// A local heap ("HEAP") belongs to one old-style group and holds the
// NUL-terminated link names its symbol table nodes point into. The
// header gives the size and address of the data segment, which
// [ReadLocalHeap] loads whole; [LocalHeap.String] returns the name at an
// offset.
//
// # Global Heaps
//
// Variable-length data, such as variable-length string metadata, is
// stored in global heap collections ("GCOL"). Each element of such a
// dataset is a [GlobalRef] naming a collection address and an object
// index within it. A [Cache] resolves references, reading each
// collection once:
//
//	cache := heap.NewCache(r)
//	ref, err := heap.DecodeRef(r, raw[i*size:(i+1)*size])
//	data, err := cache.Resolve(ref)
package heap
