package compress

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

// lz4CompressorPool pools high-compression block compressors, whose hash
// chains are worth keeping between calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.CompressorHC{Level: lz4.Level9}
	},
}

// LZ4Codec implements the lz4_data payload as a single raw LZ4 block.
// The block format carries no size, so raw_size is required to decode it.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates a new LZ4 codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Type returns format.CompressionLZ4.
func (c LZ4Codec) Type() format.CompressionType {
	return format.CompressionLZ4
}

// CompressBound returns lz4.CompressBlockBound(n).
func (c LZ4Codec) CompressBound(n int) int {
	return lz4.CompressBlockBound(n)
}

// Compress appends the LZ4 block of src to dst.
//
// Parameters:
//   - dst: destination buffer, extended by at most CompressBound(len(src)) bytes
//   - src: payload to compress
//
// Returns:
//   - []byte: dst extended with the compressed block
//   - error: compression error if any
func (c LZ4Codec) Compress(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		// an empty payload is a single zero token
		return append(dst, 0), nil
	}

	start := len(dst)
	dst = slices.Grow(dst, c.CompressBound(len(src)))
	out := dst[start : start+c.CompressBound(len(src))]

	lc, _ := lz4CompressorPool.Get().(*lz4.CompressorHC)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(src, out)
	if err != nil {
		return dst[:start], fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		return dst[:start], fmt.Errorf("lz4 compression failed: payload of %d bytes not compressible into bound", len(src))
	}

	return dst[:start+n], nil
}

// Decompress decodes the LZ4 block src into dst. The decoder itself refuses to
// write past len(dst).
func (c LZ4Codec) Decompress(dst, src []byte) error {
	if len(dst) == 0 {
		if len(src) <= 1 {
			return nil
		}

		return fmt.Errorf("%w: lz4 payload of %d bytes for empty raw_size", errs.ErrRawSizeMismatch, len(src))
	}

	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return fmt.Errorf("%w: lz4: %w", errs.ErrDecompression, err)
	}
	if n != len(dst) {
		return sizeMismatch(format.CompressionLZ4, len(dst), n)
	}

	return nil
}
