package schema

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

// BlobHeader field numbers.
const (
	blobHeaderType      protowire.Number = 1
	blobHeaderIndexData protowire.Number = 2
	blobHeaderDataSize  protowire.Number = 3
)

// Blob field numbers.
const (
	blobRaw       protowire.Number = 1
	blobRawSize   protowire.Number = 2
	blobZlibData  protowire.Number = 3
	blobLZMAData  protowire.Number = 4
	blobBzip2Data protowire.Number = 5
	blobLZ4Data   protowire.Number = 6
	blobZstdData  protowire.Number = 7
)

// BlobHeader precedes every blob in a PBF file.
type BlobHeader struct {
	// Type is the blob type name, "OSMHeader" or "OSMData" for known blobs.
	Type string
	// IndexData is an optional opaque index; it aliases the parsed input.
	IndexData []byte
	// DataSize is the byte length of the Blob message that follows.
	DataSize int32
}

// Unmarshal parses a BlobHeader. Both type and datasize are required.
func (h *BlobHeader) Unmarshal(b []byte) error {
	const msg = "BlobHeader"

	*h = BlobHeader{}
	hasType, hasSize := false, false

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		switch {
		case num == blobHeaderType && typ == protowire.BytesType:
			var v []byte
			v, n, err = consumeBytes(msg, num, b)
			h.Type = string(v)
			hasType = true
		case num == blobHeaderIndexData && typ == protowire.BytesType:
			h.IndexData, n, err = consumeBytes(msg, num, b)
		case num == blobHeaderDataSize && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeVarint(msg, num, b)
			h.DataSize = int32(v) //nolint:gosec
			hasSize = true
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	if !hasType {
		return missing(msg, "type")
	}
	if !hasSize {
		return missing(msg, "datasize")
	}

	return nil
}

// Size returns the encoded size of h.
func (h *BlobHeader) Size() int {
	size := sizeBytesField(blobHeaderType, len(h.Type))
	if len(h.IndexData) > 0 {
		size += sizeBytesField(blobHeaderIndexData, len(h.IndexData))
	}
	size += sizeVarintField(blobHeaderDataSize, int32Varint(h.DataSize))

	return size
}

// AppendTo appends the encoded BlobHeader to b.
func (h *BlobHeader) AppendTo(b []byte) []byte {
	b = appendStringField(b, blobHeaderType, h.Type)
	if len(h.IndexData) > 0 {
		b = appendBytesField(b, blobHeaderIndexData, h.IndexData)
	}

	return appendVarintField(b, blobHeaderDataSize, int32Varint(h.DataSize))
}

// Blob holds one possibly compressed block payload.
//
// Exactly one payload field is present on the wire; Compression records which
// one and Data holds its bytes, aliasing the parsed input.
type Blob struct {
	Compression format.CompressionType
	Data        []byte
	// RawSize is the uncompressed size; HasRawSize is false when the field is absent.
	RawSize    int32
	HasRawSize bool
}

// Unmarshal parses a Blob message.
//
// Returns:
//   - error: errs.ErrInvalidBlob when no payload field is present, or wire errors
func (bl *Blob) Unmarshal(b []byte) error {
	const msg = "Blob"

	*bl = Blob{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		switch {
		case num == blobRawSize && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeVarint(msg, num, b)
			bl.RawSize = int32(v) //nolint:gosec
			bl.HasRawSize = true
		case num >= blobRaw && num <= blobZstdData && num != blobRawSize && typ == protowire.BytesType:
			bl.Data, n, err = consumeBytes(msg, num, b)
			bl.Compression = payloadCompression(num)
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	if bl.Compression == 0 {
		return fmt.Errorf("%w: no payload field", errs.ErrInvalidBlob)
	}
	if bl.Compression != format.CompressionNone && !bl.HasRawSize {
		return fmt.Errorf("%w: %s payload without raw_size", errs.ErrInvalidBlob, bl.Compression)
	}
	if bl.HasRawSize && bl.RawSize < 0 {
		return fmt.Errorf("%w: negative raw_size %d", errs.ErrInvalidBlob, bl.RawSize)
	}

	return nil
}

// Size returns the encoded size of bl.
func (bl *Blob) Size() int {
	size := 0
	if bl.Compression != format.CompressionNone {
		size += sizeVarintField(blobRawSize, int32Varint(bl.RawSize))
	}

	return size + sizeBytesField(payloadField(bl.Compression), len(bl.Data))
}

// AppendTo appends the encoded Blob to b. raw_size is written for every
// compressed payload and omitted for raw ones.
func (bl *Blob) AppendTo(b []byte) []byte {
	if bl.Compression != format.CompressionNone {
		b = appendVarintField(b, blobRawSize, int32Varint(bl.RawSize))
	}

	return appendBytesField(b, payloadField(bl.Compression), bl.Data)
}

func payloadCompression(num protowire.Number) format.CompressionType {
	switch num {
	case blobRaw:
		return format.CompressionNone
	case blobZlibData:
		return format.CompressionZlib
	case blobLZMAData:
		return format.CompressionLZMA
	case blobBzip2Data:
		return format.CompressionBzip2
	case blobLZ4Data:
		return format.CompressionLZ4
	case blobZstdData:
		return format.CompressionZstd
	default:
		return 0
	}
}

func payloadField(c format.CompressionType) protowire.Number {
	switch c {
	case format.CompressionZlib:
		return blobZlibData
	case format.CompressionLZMA:
		return blobLZMAData
	case format.CompressionBzip2:
		return blobBzip2Data
	case format.CompressionLZ4:
		return blobLZ4Data
	case format.CompressionZstd:
		return blobZstdData
	default:
		return blobRaw
	}
}
