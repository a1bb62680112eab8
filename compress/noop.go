package compress

import "github.com/arloliu/osmpbf/format"

// NoOpCodec stores payloads verbatim, as the Blob raw field does.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a new no-operation codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Type returns format.CompressionNone.
func (c NoOpCodec) Type() format.CompressionType {
	return format.CompressionNone
}

// CompressBound returns n.
func (c NoOpCodec) CompressBound(n int) int {
	return n
}

// Compress appends src to dst unchanged.
func (c NoOpCodec) Compress(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

// Decompress copies src into dst. Both must have the same length.
func (c NoOpCodec) Decompress(dst, src []byte) error {
	if len(src) != len(dst) {
		return sizeMismatch(format.CompressionNone, len(dst), len(src))
	}
	copy(dst, src)

	return nil
}
