// Package object reads HDF5 object headers.
//
// # Version 1
//
// A 16-byte prefix (version, message count, reference count, header size)
// is followed by messages aligned to 8 bytes, each with a 2-byte type,
// 2-byte size and flags.
//
// # Version 2
//
// The header starts with "OHDR", optional access/modification times and
// attribute phase-change values, and a chunk size whose width depends on
// the flags. Messages have a 1-byte type and may carry a creation order.
// Every block, including continuation blocks ("OCHK"), ends with a lookup3
// checksum, which is verified.
//
// # Continuations
//
// Continuation messages are followed in both versions, so
// [Header.Messages] holds the complete message list in file order. The
// accessors ([Header.Dataspace], [Header.Links] and the rest) return the
// first decoded message of each type.
package object
