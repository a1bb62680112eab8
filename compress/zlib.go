package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

// zlibWriterPool pools maximum-level zlib writers. Reset rebinds the output.
var zlibWriterPool = sync.Pool{
	New: func() any {
		w, err := zlib.NewWriterLevel(nil, zlib.BestCompression)
		if err != nil {
			// BestCompression is a valid level
			panic(fmt.Sprintf("failed to create zlib writer for pool: %v", err))
		}

		return w
	},
}

// zlibReaderPool holds readers that already consumed a valid stream header.
// zlib.NewReader needs input up front, so the pool has no New function.
var zlibReaderPool sync.Pool

// ZlibCodec implements the zlib_data payload: a zlib-wrapped DEFLATE stream.
type ZlibCodec struct{}

var _ Codec = (*ZlibCodec)(nil)

// NewZlibCodec creates a new zlib codec.
func NewZlibCodec() ZlibCodec {
	return ZlibCodec{}
}

// Type returns format.CompressionZlib.
func (c ZlibCodec) Type() format.CompressionType {
	return format.CompressionZlib
}

// CompressBound returns the worst-case zlib output size for n input bytes:
// stored deflate blocks plus the 2-byte zlib header and 4-byte adler32 trailer.
func (c ZlibCodec) CompressBound(n int) int {
	return n + ((n + 7) >> 3) + ((n + 63) >> 6) + 5 + 6
}

// Compress appends the zlib stream of src to dst at zlib.BestCompression.
func (c ZlibCodec) Compress(dst, src []byte) ([]byte, error) {
	out := &appendWriter{b: dst}

	w, _ := zlibWriterPool.Get().(*zlib.Writer)
	defer zlibWriterPool.Put(w)
	w.Reset(out)

	if _, err := w.Write(src); err != nil {
		return dst, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return dst, fmt.Errorf("zlib compression failed: %w", err)
	}

	return out.b, nil
}

// Decompress inflates src into dst and verifies the stream ends exactly at len(dst).
func (c ZlibCodec) Decompress(dst, src []byte) error {
	r, err := c.getReader(src)
	if err != nil {
		return fmt.Errorf("%w: zlib: %w", errs.ErrDecompression, err)
	}
	defer func() {
		_ = r.Close()
		zlibReaderPool.Put(r)
	}()

	return readExactly(r, dst, format.CompressionZlib)
}

func (c ZlibCodec) getReader(src []byte) (io.ReadCloser, error) {
	if pooled, ok := zlibReaderPool.Get().(io.ReadCloser); ok {
		if err := pooled.(zlib.Resetter).Reset(bytes.NewReader(src), nil); err != nil {
			return nil, err
		}

		return pooled, nil
	}

	return zlib.NewReader(bytes.NewReader(src))
}

// readExactly fills dst from r and then checks that r has no more data.
// Shared by the streaming codecs.
func readExactly(r io.Reader, dst []byte, t format.CompressionType) error {
	n, err := io.ReadFull(r, dst)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return sizeMismatch(t, len(dst), n)
		}

		return fmt.Errorf("%w: %s: %w", errs.ErrDecompression, t, err)
	}

	extra, err := io.Copy(io.Discard, io.LimitReader(r, 1))
	if extra > 0 {
		return sizeMismatch(t, len(dst), len(dst)+int(extra))
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errs.ErrDecompression, t, err)
	}

	return nil
}
