package blob

import (
	"github.com/arloliu/osmpbf/format"
)

// Default size ceilings.
const (
	DefaultMaxHeaderSize = 64 * 1024
	DefaultMaxBodySize   = 32 * 1024 * 1024
)

// Blob is one decoded frame.
type Blob struct {
	// Type is the parsed blob type; BlobUnknown for unrecognized names.
	Type format.BlobType
	// TypeName is the type string carried in the BlobHeader.
	TypeName string
	// Payload is the uncompressed blob content. It is owned by the Reader and
	// overwritten by the next ReadBlob call.
	Payload []byte
	// RawSize is the declared uncompressed size, or 0 when the payload was
	// stored raw.
	RawSize int
	// Compression is the payload field the blob was stored in.
	Compression format.CompressionType
	// Offset is the stream offset of the frame's length prefix.
	Offset int64
}

// IsHeader reports whether b is an OSMHeader blob.
func (b Blob) IsHeader() bool {
	return b.Type == format.BlobHeader
}

// IsData reports whether b is an OSMData blob.
func (b Blob) IsData() bool {
	return b.Type == format.BlobData
}
