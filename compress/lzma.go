package compress

import (
	"bytes"
	"fmt"

	"github.com/ulikunitz/xz/lzma"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

// lzmaDictCap is the dictionary size used for writing. A PBF block never exceeds
// the 32MiB body ceiling, so a larger dictionary would gain nothing.
const lzmaDictCap = 32 << 20

// LZMACodec implements the lzma_data payload in the classic .lzma ("alone")
// container.
type LZMACodec struct{}

var _ Codec = (*LZMACodec)(nil)

// NewLZMACodec creates a new LZMA codec.
func NewLZMACodec() LZMACodec {
	return LZMACodec{}
}

// Type returns format.CompressionLZMA.
func (c LZMACodec) Type() format.CompressionType {
	return format.CompressionLZMA
}

// CompressBound returns the input size plus the range coder's worst-case
// expansion and the 13-byte header.
//
// LZMA has no published closed-form bound; this is a capacity hint and
// Compress still grows dst when exceeded.
func (c LZMACodec) CompressBound(n int) int {
	return n + n/3 + 13 + 128
}

// Compress appends the .lzma stream of src to dst.
func (c LZMACodec) Compress(dst, src []byte) ([]byte, error) {
	out := &appendWriter{b: dst}

	cfg := lzma.WriterConfig{
		DictCap:      lzmaDictCap,
		SizeInHeader: true,
		Size:         int64(len(src)),
	}
	w, err := cfg.NewWriter(out)
	if err != nil {
		return dst, fmt.Errorf("lzma compression failed: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return dst, fmt.Errorf("lzma compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return dst, fmt.Errorf("lzma compression failed: %w", err)
	}

	return out.b, nil
}

// Decompress decodes the .lzma stream src into dst.
func (c LZMACodec) Decompress(dst, src []byte) error {
	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("%w: lzma: %w", errs.ErrDecompression, err)
	}

	return readExactly(r, dst, format.CompressionLZMA)
}
