package format

// Type names carried in the BlobHeader type field.
const (
	BlobTypeNameHeader = "OSMHeader"
	BlobTypeNameData   = "OSMData"
)

// Feature strings understood by this package.
const (
	FeatureOsmSchemaV06 = "OsmSchema-V0.6"
	FeatureDenseNodes   = "DenseNodes"
)

// Default values of optional PrimitiveBlock fields.
const (
	DefaultGranularity     int32 = 100
	DefaultDateGranularity int32 = 1000
)

type (
	BlobType        uint8
	CompressionType uint8
	MemberType      uint8
	NodeKind        uint8
	PrimitiveKind   uint8
)

const (
	BlobUnknown BlobType = 0x0 // BlobUnknown is any type name other than OSMHeader/OSMData.
	BlobHeader  BlobType = 0x1 // BlobHeader carries a HeaderBlock.
	BlobData    BlobType = 0x2 // BlobData carries a PrimitiveBlock.

	CompressionNone  CompressionType = 0x1 // CompressionNone stores the payload in the raw field.
	CompressionZlib  CompressionType = 0x2 // CompressionZlib stores the payload in zlib_data.
	CompressionLZMA  CompressionType = 0x3 // CompressionLZMA stores the payload in lzma_data.
	CompressionBzip2 CompressionType = 0x4 // CompressionBzip2 is the obsolete bzip2 field, never supported.
	CompressionLZ4   CompressionType = 0x5 // CompressionLZ4 stores the payload in lz4_data.
	CompressionZstd  CompressionType = 0x6 // CompressionZstd stores the payload in zstd_data.

	// Relation member types, numbered as on the wire.
	MemberNode     MemberType = 0
	MemberWay      MemberType = 1
	MemberRelation MemberType = 2

	// Node kinds are bit flags so cursors can select either or both.
	NodePlain NodeKind = 0x1
	NodeDense NodeKind = 0x2
	NodeAny            = NodePlain | NodeDense

	KindNode     PrimitiveKind = 0x1
	KindWay      PrimitiveKind = 0x2
	KindRelation PrimitiveKind = 0x3
)

// ParseBlobType maps a BlobHeader type name to a BlobType.
func ParseBlobType(name string) BlobType {
	switch name {
	case BlobTypeNameHeader:
		return BlobHeader
	case BlobTypeNameData:
		return BlobData
	default:
		return BlobUnknown
	}
}

func (b BlobType) String() string {
	switch b {
	case BlobHeader:
		return BlobTypeNameHeader
	case BlobData:
		return BlobTypeNameData
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZlib:
		return "Zlib"
	case CompressionLZMA:
		return "LZMA"
	case CompressionBzip2:
		return "Bzip2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a lower-case name as used on command lines to a
// CompressionType. The second result is false for unknown names.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch name {
	case "none", "raw":
		return CompressionNone, true
	case "zlib", "deflate":
		return CompressionZlib, true
	case "lzma":
		return CompressionLZMA, true
	case "lz4":
		return CompressionLZ4, true
	case "zstd":
		return CompressionZstd, true
	default:
		return 0, false
	}
}

func (m MemberType) String() string {
	switch m {
	case MemberNode:
		return "node"
	case MemberWay:
		return "way"
	case MemberRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Has reports whether k includes every bit of other.
func (k NodeKind) Has(other NodeKind) bool {
	return k&other == other
}

func (k NodeKind) String() string {
	switch k {
	case NodePlain:
		return "Plain"
	case NodeDense:
		return "Dense"
	case NodeAny:
		return "Any"
	default:
		return "None"
	}
}

func (p PrimitiveKind) String() string {
	switch p {
	case KindNode:
		return "Node"
	case KindWay:
		return "Way"
	case KindRelation:
		return "Relation"
	default:
		return "Unknown"
	}
}
