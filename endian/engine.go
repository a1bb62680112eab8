// Package endian provides the byte order helpers used by PBF framing.
//
// Every frame starts with the length of its BlobHeader as a 4-byte unsigned
// integer in network (big-endian) byte order. Protobuf messages inside the
// frame use varints and do not depend on byte order.
package endian

import (
	"encoding/binary"
)

// LengthPrefixSize is the size of a frame length prefix in bytes.
const LengthPrefixSize = 4

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetNetworkEngine returns the engine used for frame length prefixes.
func GetNetworkEngine() EndianEngine {
	return binary.BigEndian
}

// AppendLengthPrefix appends n as a 4-byte network-order length prefix.
func AppendLengthPrefix(dst []byte, n uint32) []byte {
	return GetNetworkEngine().AppendUint32(dst, n)
}

// LengthPrefix decodes a 4-byte network-order length prefix. b must hold at
// least LengthPrefixSize bytes.
func LengthPrefix(b []byte) uint32 {
	return GetNetworkEngine().Uint32(b[:LengthPrefixSize])
}
