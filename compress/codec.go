package compress

import (
	"fmt"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

// Compressor compresses blob payloads.
type Compressor interface {
	// Type returns the compression type implemented by the codec.
	Type() format.CompressionType

	// CompressBound returns an upper bound of the compressed size of n input bytes.
	CompressBound(n int) int

	// Compress appends the compressed form of src to dst and returns the
	// extended slice. src is not modified.
	Compress(dst, src []byte) ([]byte, error)
}

// Decompressor decompresses blob payloads of a known uncompressed size.
type Decompressor interface {
	// Type returns the compression type implemented by the codec.
	Type() format.CompressionType

	// Decompress decompresses src into dst. len(dst) is the declared raw size;
	// the payload must inflate to exactly that many bytes.
	//
	// Returns:
	//   - error: wraps errs.ErrRawSizeMismatch when the sizes differ, or
	//     errs.ErrDecompression for corrupt input
	Decompress(dst, src []byte) error
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a new Codec for the specified compression type.
//
// Parameters:
//   - compressionType: one of the supported PBF payload fields
//
// Returns:
//   - Codec: codec instance
//   - error: errs.ErrUnsupportedCompression for bzip2 or unknown types
func CreateCodec(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCodec(), nil
	case format.CompressionZlib:
		return NewZlibCodec(), nil
	case format.CompressionLZMA:
		return NewLZMACodec(), nil
	case format.CompressionLZ4:
		return NewLZ4Codec(), nil
	case format.CompressionZstd:
		return NewZstdCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCodec(),
	format.CompressionZlib: NewZlibCodec(),
	format.CompressionLZMA: NewLZMACodec(),
	format.CompressionLZ4:  NewLZ4Codec(),
	format.CompressionZstd: NewZstdCodec(),
}

// GetCodec retrieves the shared built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// sizeMismatch builds the error returned when a payload does not inflate to
// its declared size.
func sizeMismatch(t format.CompressionType, want, got int) error {
	return fmt.Errorf("%w: %s payload declared %d bytes, got %d", errs.ErrRawSizeMismatch, t, want, got)
}

// appendWriter is an io.Writer appending to a byte slice.
type appendWriter struct {
	b []byte
}

func (w *appendWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
