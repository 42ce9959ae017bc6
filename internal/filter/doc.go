// Package filter implements the HDF5 chunk filters and the pipeline that
// applies them.
//
// # Supported Filters
//
//   - Deflate (ID 1): zlib streams via [Deflate], backed by
//     klauspost/compress. The client value is the compression level.
//
//   - Shuffle (ID 2): byte transposition via [Shuffle]. The client value
//     is the element size; bytes are grouped by their position within an
//     element, which helps the compressor that follows.
//
//   - Fletcher32 (ID 3): a checksum appended to each chunk, verified and
//     stripped by [Fletcher32]. The sum runs over big-endian 16-bit words;
//     an odd trailing byte is the high byte of a final word.
//
//   - LZ4 (ID 32004): the registered lz4 plugin via [LZ4]. A chunk is a
//     12-byte big-endian header (original size, block size) followed by
//     length-prefixed blocks; a block whose stored size equals its
//     original size is raw.
//
//   - Zstd (ID 32015): the registered zstd plugin via [Zstd]. Each chunk
//     is one zstd frame. Decoders and encoders are pooled.
//
// Any other filter id fails in [New] with [ErrUnsupported] unless the
// pipeline marks it optional, in which case it is skipped.
//
// # Pipeline
//
// A [Pipeline] is built from a filter pipeline message. Decoding runs the
// filters in reverse of their listed order, so a chunk written with
// shuffle then deflate is inflated first and unshuffled second:
//
//	p, err := filter.NewPipeline(hdr.FilterPipeline())
//	data, err := p.Decode(stored, chunk.FilterMask)
//
// # Filter Mask
//
// Bit i of a chunk's filter mask means filter i was not applied when the
// chunk was written, and is skipped when decoding it.
//
// # Encoding
//
// Every filter also implements Encode, and [Pipeline.Encode] applies them
// in listed order. The fixture builder in internal/h5build writes chunks
// through the same code that reads them.
package filter
