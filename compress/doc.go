// Package compress provides the codecs used for PBF blob payloads.
//
// A PBF Blob stores its payload either verbatim (raw) or compressed in one of
// several mutually exclusive fields, always together with the uncompressed size
// (raw_size). This package implements one codec per supported field:
//
//	Field       | CompressionType          | Codec
//	------------|--------------------------|-------------
//	raw         | format.CompressionNone   | NoOpCodec
//	zlib_data   | format.CompressionZlib   | ZlibCodec
//	lzma_data   | format.CompressionLZMA   | LZMACodec
//	lz4_data    | format.CompressionLZ4    | LZ4Codec
//	zstd_data   | format.CompressionZstd   | ZstdCodec
//
// # Compression
//
// Compress appends to a caller-supplied buffer. Callers size that buffer with
// CompressBound before compressing, so a single compression never reallocates
// for the zlib, lz4 and zstd codecs:
//
//	codec, _ := compress.GetCodec(format.CompressionZlib)
//	dst := make([]byte, 0, codec.CompressBound(len(payload)))
//	dst, err := codec.Compress(dst, payload)
//
// Every codec compresses at its maximum ratio: PBF files are written once and
// read many times.
//
// # Decompression
//
// Decompress writes into dst, whose length must equal the declared raw size. A
// payload that inflates to more or fewer bytes fails with errs.ErrRawSizeMismatch
// and never writes past len(dst).
//
// # Zstandard backends
//
// The zstd codec uses github.com/klauspost/compress/zstd by default. Building
// with cgo enabled and the gozstd tag switches to github.com/valyala/gozstd.
//
// # Thread Safety
//
// All codecs are stateless values backed by sync.Pool instances and are safe for
// concurrent use.
package compress
