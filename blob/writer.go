package blob

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arloliu/osmpbf/compress"
	"github.com/arloliu/osmpbf/endian"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/internal/options"
	"github.com/arloliu/osmpbf/internal/pool"
	"github.com/arloliu/osmpbf/schema"
)

// Writer writes frames to a PBF stream.
//
// A Writer is not safe for concurrent use; parallel producers must serialize
// their WriteBlob calls.
type Writer struct {
	w      io.Writer
	closer io.Closer
	cfg    *WriterConfig
	codec  compress.Codec

	offset int64
	err    error

	frame   *pool.ByteBuffer
	scratch *pool.ByteBuffer
}

// NewWriter creates a Writer over w.
//
// Parameters:
//   - w: destination stream
//   - opts: compression and size options
//
// Returns:
//   - *Writer: writer with offset 0
//   - error: option validation error
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := defaultWriterConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	return &Writer{
		w:       w,
		cfg:     cfg,
		codec:   codec,
		frame:   pool.GetFrameBuffer(),
		scratch: pool.GetBlockBuffer(),
	}, nil
}

// Create creates the file at path and writes header as its first blob.
// The file is removed again if the header cannot be written.
func Create(path string, header *schema.HeaderBlock, opts ...WriterOption) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w, err := NewWriter(f, opts...)
	if err == nil {
		w.closer = f
		err = w.WriteHeader(header)
		if err != nil {
			_ = w.Close()
		}
	} else {
		_ = f.Close()
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	return w, nil
}

// Compression returns the codec type applied by WriteBlob.
func (w *Writer) Compression() format.CompressionType {
	return w.cfg.compression
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return w.offset
}

// WriteHeader encodes h and writes it as an OSMHeader blob.
func (w *Writer) WriteHeader(h *schema.HeaderBlock) error {
	data := h.AppendTo(make([]byte, 0, h.Size()))
	return w.WriteBlob(format.BlobHeader, data, true)
}

// WriteBlob writes data as one frame of type t.
//
// When compressPayload is true and the writer has a compression codec, the payload
// is compressed and its raw size recorded; otherwise it is stored raw. The
// frame is assembled in memory and emitted with a single Write.
//
// Returns:
//   - error: errs.ErrBlobTooLarge when the body exceeds the ceiling, a codec
//     error, or the underlying write error. Write errors are sticky.
func (w *Writer) WriteBlob(t format.BlobType, data []byte, compressPayload bool) error {
	if w.err != nil {
		return w.err
	}
	if t != format.BlobHeader && t != format.BlobData {
		return fmt.Errorf("%w: cannot write blob type %s", errs.ErrInvalidBlob, t)
	}

	msg := schema.Blob{Compression: format.CompressionNone, Data: data}
	if compressPayload && w.codec.Type() != format.CompressionNone {
		w.scratch.Reset()
		w.scratch.Grow(w.codec.CompressBound(len(data)))
		out, err := w.codec.Compress(w.scratch.B, data)
		if err != nil {
			return err
		}
		w.scratch.B = out

		msg = schema.Blob{
			Compression: w.codec.Type(),
			Data:        out,
			RawSize:     int32(len(data)), //nolint:gosec
			HasRawSize:  true,
		}
	}

	bodySize := msg.Size()
	if bodySize > w.cfg.maxBodySize || len(data) > w.cfg.maxBodySize {
		return fmt.Errorf("%w: %d byte payload exceeds %d", errs.ErrBlobTooLarge, len(data), w.cfg.maxBodySize)
	}

	bh := schema.BlobHeader{Type: t.String(), DataSize: int32(bodySize)} //nolint:gosec
	headerSize := bh.Size()
	if headerSize > w.cfg.maxHeaderSize {
		return fmt.Errorf("%w: %d bytes", errs.ErrInvalidHeaderSize, headerSize)
	}

	w.frame.Reset()
	w.frame.Grow(endian.LengthPrefixSize + headerSize + bodySize)
	buf := endian.AppendLengthPrefix(w.frame.B, uint32(headerSize)) //nolint:gosec
	buf = bh.AppendTo(buf)
	buf = msg.AppendTo(buf)
	w.frame.B = buf

	n, err := w.w.Write(buf)
	w.offset += int64(n)
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = fmt.Errorf("write blob at offset %d: %w", w.offset-int64(n), err)
		return w.err
	}

	return nil
}

// Close releases the Writer's buffers and closes the file created by Create.
func (w *Writer) Close() error {
	if w.frame != nil {
		pool.PutFrameBuffer(w.frame)
		pool.PutBlockBuffer(w.scratch)
		w.frame, w.scratch = nil, nil
	}
	if w.err == nil {
		w.err = fmt.Errorf("%w: writer is closed", os.ErrClosed)
	}
	if w.closer == nil {
		return nil
	}
	c := w.closer
	w.closer = nil

	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}

	return nil
}
