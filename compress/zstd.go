package compress

import "github.com/arloliu/osmpbf/format"

// ZstdCodec implements the zstd_data payload.
//
// The backend is chosen at build time: klauspost/compress/zstd by default,
// valyala/gozstd when built with cgo and the gozstd tag.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstandard codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}

// Type returns format.CompressionZstd.
func (c ZstdCodec) Type() format.CompressionType {
	return format.CompressionZstd
}

// CompressBound mirrors ZSTD_COMPRESSBOUND from the reference library.
func (c ZstdCodec) CompressBound(n int) int {
	const smallLimit = 128 << 10

	bound := n + (n >> 8)
	if n < smallLimit {
		bound += (smallLimit - n) >> 11
	}

	return bound
}

func checkZstdOutput(dst, out []byte) error {
	if len(out) != len(dst) {
		return sizeMismatch(format.CompressionZstd, len(dst), len(out))
	}
	if len(out) > 0 && &out[0] != &dst[0] {
		// output outgrew dst and was reallocated; dst itself was left untouched
		copy(dst, out)
	}

	return nil
}
