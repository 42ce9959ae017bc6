// Package message decodes the header messages stored in HDF5 object
// headers.
//
// Only the messages needed to navigate groups and read datasets are
// decoded into typed values:
//
//   - Dataspace (0x0001), see [Dataspace]
//   - Link Info (0x0002), see [LinkInfo]
//   - Datatype (0x0003), see [Datatype]
//   - Fill Value (0x0004, 0x0005), see [FillValue]
//   - Link (0x0006), see [Link]
//   - Data Layout (0x0008), see [DataLayout]
//   - Filter Pipeline (0x000B), see [FilterPipeline]
//   - Attribute (0x000C), see [Attribute]
//   - Continuation (0x0010), see [Continuation]
//   - Symbol Table (0x0011), see [SymbolTable]
//
// Everything else is returned as [Unknown] with its raw bytes.
package message
