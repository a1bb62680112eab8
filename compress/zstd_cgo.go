//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/arloliu/osmpbf/errs"
)

// zstdMaxLevel is the highest level accepted by the reference library.
const zstdMaxLevel = 22

// Compress appends the zstd frame of src to dst.
func (c ZstdCodec) Compress(dst, src []byte) ([]byte, error) {
	return gozstd.CompressLevel(dst, src, zstdMaxLevel), nil
}

// Decompress decodes src into dst.
func (c ZstdCodec) Decompress(dst, src []byte) error {
	out, err := gozstd.Decompress(dst[:0], src)
	if err != nil {
		return fmt.Errorf("%w: zstd: %w", errs.ErrDecompression, err)
	}

	return checkZstdOutput(dst, out)
}
