// Package btree reads the indexes that locate group members and dataset
// chunks.
//
// # Version 1 B-trees
//
// "TREE" nodes carry a node type, a level and interleaved keys and child
// addresses. Level 0 children are leaves.
//
//   - Type 0 indexes an old-style group: leaves are "SNOD" symbol table
//     nodes whose entries name members through the group's local heap.
//     See [ReadGroupEntries].
//   - Type 1 indexes the chunks of a dataset written with layout message
//     version 3. Each key holds the chunk's stored size, filter mask and
//     element offset. See [ReadChunksV1].
//
// # Fixed Arrays
//
// Datasets with fixed dimensions written with layout message version 4 use
// a fixed array: a "FAHD" header pointing at a "FADB" data block with one
// entry per chunk in row-major chunk order. Large arrays split the block
// into pages, each followed by its own checksum. Filtered entries also
// record the stored size and filter mask. See [ReadFixedArray].
//
// A [Grid] converts between chunk numbers and chunk coordinates.
package btree
