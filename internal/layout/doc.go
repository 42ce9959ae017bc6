// Package layout reads dataset elements from the three HDF5 storage
// classes behind one [Layout] interface.
//
// # Storage Classes
//
//   - Compact (class 0): the elements live inside the object header, in
//     the layout message itself. Only used for small datasets. Implemented
//     by [Compact].
//
//   - Contiguous (class 1): one block in the file holds every element in
//     row-major order. A selection is served by reading, for each
//     combination of leading coordinates, the span of the last dimension
//     that covers the selected positions. Implemented by [Contiguous].
//
//   - Chunked (class 2): the dataspace is cut into fixed-shape chunks, each
//     stored separately, optionally filtered, and located through a chunk
//     index. Implemented by [Chunked].
//
// Unallocated storage (a chunk missing from the index, or a contiguous
// block never written) reads as the fill value, or zeros without one.
//
// # Creating a Layout
//
// [New] picks the handler from the data layout message. The remaining
// header messages come in a [Source]:
//
//	l, err := layout.New(r, layout.Source{
//		Layout:  hdr.Layout(),
//		Space:   hdr.Dataspace(),
//		Type:    hdr.Datatype(),
//		Filters: hdr.FilterPipeline(),
//		Fill:    hdr.FillValue(),
//	}, layout.WithCache(cache))
//
// # Selections
//
// A [Selection] holds one coordinate list per dimension and selects their
// outer product. The result is row-major in the selection's own shape, so
// coordinates may be unsorted or repeated and come back in the order
// given. [All] and [Hyperslab] build the common cases; [ReadSlice] and
// [ReadIndexed] wrap them for callers that hold only a Layout.
//
//	// rows 7 and 2 of a 10x10 dataset, every column
//	raw, err := layout.ReadIndexed(l, []uint64{10, 10}, 0, []uint64{7, 2})
//
// # Chunk Indexes
//
// The index type comes from the layout message:
//
//   - Version 1 B-tree: layout message version 3, and version 4 files
//     written with compatibility settings.
//   - Single chunk: the whole dataset is one chunk, optionally with its
//     filtered size and mask stored in the message.
//   - Implicit: chunks are stored back to back in row-major chunk order.
//   - Fixed array: the default for fixed-size datasets in version 4.
//
// Extensible arrays and version 2 B-trees are only written for datasets
// with unlimited dimensions; they fail with [ErrUnsupported].
//
// # Chunked Reads
//
// [Chunked.ReadSelection] groups the selected coordinates of each
// dimension by chunk, visits only the touched chunks in ascending chunk
// order, and scatters each chunk's selected elements to their output
// positions. A chunk is decoded once per read however many coordinates it
// holds.
//
// # Chunk Cache
//
// A [ChunkCache] keeps decoded chunks keyed by file address in an LRU, so
// one cache can be shared by every dataset of a file. An [Observer] sees
// bytes read, chunks decoded and cache lookups; the hdf5 package feeds
// these into its metrics.
package layout
