// Package schema implements the protobuf wire encoding of the OSM PBF
// messages defined by fileformat.proto and osmformat.proto.
//
// Messages are plain structs with Unmarshal, Size and AppendTo methods built
// directly on protowire, so decoding a block does not go through reflection
// and byte fields alias the input buffer instead of being copied.
//
// Decoding accepts both packed and unpacked forms of repeated scalar fields.
// Encoding always writes packed form and omits fields equal to their format
// defaults. Delta-coded columns (dense node ids and coordinates, way refs,
// relation member ids, most DenseInfo columns) are stored in the structs
// exactly as they appear on the wire; reconstructing absolute values is the
// job of the block package.
package schema
