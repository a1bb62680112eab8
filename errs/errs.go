// Package errs defines the sentinel errors returned by osmpbf packages.
//
// Errors are grouped by the layer that reports them. Callers are expected to
// match with errors.Is, since most sentinels are wrapped with additional
// context (frame offset, field number, feature name) before they are returned.
package errs

import "errors"

// Stream framing errors. The frame that produced one of these is unusable and the
// stream position is no longer reliable.
var (
	ErrInvalidHeaderSize = errors.New("osmpbf: invalid blob header size")
	ErrInvalidBlobHeader = errors.New("osmpbf: invalid blob header")
	ErrBlobTooLarge      = errors.New("osmpbf: blob body exceeds size limit")
	ErrInvalidBlob       = errors.New("osmpbf: invalid blob")
	ErrUnexpectedEOF     = errors.New("osmpbf: unexpected end of stream inside a frame")
)

// Decompression errors, reported per blob.
var (
	ErrDecompression          = errors.New("osmpbf: decompression failed")
	ErrRawSizeMismatch        = errors.New("osmpbf: decompressed size does not match raw_size")
	ErrUnsupportedCompression = errors.New("osmpbf: unsupported blob compression")
)

// Schema violations inside a header or data block.
var (
	ErrInvalidPrimitiveBlock = errors.New("osmpbf: invalid primitive block")
	ErrMissingRequiredField  = errors.New("osmpbf: missing required field")
	ErrTruncated             = errors.New("osmpbf: truncated field")
	ErrInvalidStringID       = errors.New("osmpbf: string table id out of range")
)

// Encoder validation errors. They are local and recoverable: the encoder keeps its
// accumulated primitives and the caller may fix the batch and flush again.
var (
	ErrIncompleteRecord      = errors.New("osmpbf: record is not fully populated")
	ErrCoordinateOutOfRange  = errors.New("osmpbf: coordinate out of range")
	ErrInvalidGranularity    = errors.New("osmpbf: granularity must be positive")
	ErrInvalidDateResolution = errors.New("osmpbf: date granularity must be positive")
)

// File header errors. ErrUnsupportedFeature means the data may be well-formed but
// uses an extension this package does not understand.
var (
	ErrUnsupportedFeature = errors.New("osmpbf: unsupported required feature")
	ErrMissingHeaderBlock = errors.New("osmpbf: file does not start with an OSMHeader block")
)

// ErrInvalidOption is returned by functional options given an out-of-range value.
var ErrInvalidOption = errors.New("osmpbf: invalid option")
