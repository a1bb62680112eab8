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

// Reader reads frames from a PBF stream.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	r      io.Reader
	closer io.Closer
	cfg    *ReaderConfig

	offset int64
	err    error

	prefix [endian.LengthPrefixSize]byte
	frame  *pool.ByteBuffer
	out    *pool.ByteBuffer
	header *schema.HeaderBlock
}

// NewReader creates a Reader over r. The OSMHeader block is not checked;
// use ReadHeader for that.
//
// Parameters:
//   - r: source stream; when it implements io.Seeker, SkipBlob seeks instead of reading
//   - opts: size ceiling options
//
// Returns:
//   - *Reader: reader positioned at the current offset of r
//   - error: errs.ErrInvalidOption for invalid options
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	cfg := defaultReaderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Reader{
		r:     r,
		cfg:   cfg,
		frame: pool.GetFrameBuffer(),
		out:   pool.GetBlockBuffer(),
	}, nil
}

// Open opens a PBF file, reads its OSMHeader block and checks the required
// features. The file is closed on every failure.
//
// Returns:
//   - *Reader: reader positioned after the header block
//   - error: errs.ErrMissingHeaderBlock if the first blob is not an OSMHeader,
//     errs.ErrUnsupportedFeature for unknown required features, or any read error
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f

	if _, err := r.ReadHeader(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return r, nil
}

// ReadHeader reads the next blob, which must be an OSMHeader, parses it and
// checks its required features. The parsed header is also kept for Header.
func (r *Reader) ReadHeader() (*schema.HeaderBlock, error) {
	b, err := r.ReadBlob()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty stream", errs.ErrMissingHeaderBlock)
	}
	if err != nil {
		return nil, err
	}
	if !b.IsHeader() {
		return nil, fmt.Errorf("%w: first blob is %q", errs.ErrMissingHeaderBlock, b.TypeName)
	}

	h := &schema.HeaderBlock{}
	if err := h.Unmarshal(b.Payload); err != nil {
		return nil, fmt.Errorf("header block: %w", err)
	}
	if err := CheckFeatures(h); err != nil {
		return nil, err
	}
	r.header = h

	return h, nil
}

// Header returns the header read by Open or ReadHeader, or nil.
func (r *Reader) Header() *schema.HeaderBlock {
	return r.header
}

// Offset returns the stream offset of the next frame.
func (r *Reader) Offset() int64 {
	return r.offset
}

// ReadBlob reads and decompresses the next frame.
//
// Returns:
//   - Blob: the frame; Payload is valid until the next call
//   - error: io.EOF at a clean end of stream, a sticky framing error, or a
//     per-blob decoding error
func (r *Reader) ReadBlob() (Blob, error) {
	start := r.offset
	bh, err := r.readHeader()
	if err != nil {
		return Blob{}, err
	}

	body := r.frame.Resize(int(bh.DataSize))
	if _, err := io.ReadFull(r.r, body); err != nil {
		return Blob{}, r.fail(fmt.Errorf("%w: blob body at offset %d: %v", errs.ErrUnexpectedEOF, start, err))
	}
	r.offset += int64(bh.DataSize)

	b := Blob{
		Type:     format.ParseBlobType(bh.Type),
		TypeName: bh.Type,
		Offset:   start,
	}

	var msg schema.Blob
	if err := msg.Unmarshal(body); err != nil {
		return b, fmt.Errorf("%w at offset %d: %w", errs.ErrInvalidBlob, start, err)
	}
	b.Compression = msg.Compression

	if msg.Compression == format.CompressionNone {
		b.Payload = msg.Data
		return b, nil
	}

	b.RawSize = int(msg.RawSize)
	if b.RawSize > r.cfg.maxBodySize {
		return b, fmt.Errorf("%w: raw_size %d at offset %d exceeds %d", errs.ErrBlobTooLarge, b.RawSize, start, r.cfg.maxBodySize)
	}

	codec, err := compress.GetCodec(msg.Compression)
	if err != nil {
		return b, fmt.Errorf("blob at offset %d: %w", start, err)
	}
	out := r.out.Resize(b.RawSize)
	if err := codec.Decompress(out, msg.Data); err != nil {
		return b, fmt.Errorf("blob at offset %d: %w", start, err)
	}
	b.Payload = out

	return b, nil
}

// SkipBlob advances past the next frame without reading its body into
// memory. It seeks when the underlying stream supports it.
//
// Returns:
//   - format.BlobType: type of the skipped blob
//   - error: io.EOF at a clean end of stream or a sticky framing error
func (r *Reader) SkipBlob() (format.BlobType, error) {
	start := r.offset
	bh, err := r.readHeader()
	if err != nil {
		return format.BlobUnknown, err
	}

	size := int64(bh.DataSize)
	if s, ok := r.r.(io.Seeker); ok {
		if _, err := s.Seek(size, io.SeekCurrent); err != nil {
			return format.BlobUnknown, r.fail(fmt.Errorf("skip blob at offset %d: %w", start, err))
		}
	} else if n, err := io.CopyN(io.Discard, r.r, size); err != nil {
		return format.BlobUnknown, r.fail(fmt.Errorf("%w: skipped %d of %d body bytes at offset %d",
			errs.ErrUnexpectedEOF, n, size, start))
	}
	r.offset += size

	return format.ParseBlobType(bh.Type), nil
}

// Close releases the Reader's buffers and closes the file opened by Open.
// Closing twice is safe.
func (r *Reader) Close() error {
	if r.frame != nil {
		pool.PutFrameBuffer(r.frame)
		pool.PutBlockBuffer(r.out)
		r.frame, r.out = nil, nil
	}
	if r.err == nil {
		r.err = fmt.Errorf("%w: reader is closed", os.ErrClosed)
	}
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil

	return c.Close()
}

// readHeader reads the length prefix and BlobHeader of the next frame and
// checks the declared body size against the ceiling.
func (r *Reader) readHeader() (schema.BlobHeader, error) {
	var bh schema.BlobHeader
	if r.err != nil {
		return bh, r.err
	}

	start := r.offset
	n, err := io.ReadFull(r.r, r.prefix[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return bh, r.fail(io.EOF)
		}

		return bh, r.fail(fmt.Errorf("%w: length prefix at offset %d: %v", errs.ErrUnexpectedEOF, start, err))
	}

	size := endian.LengthPrefix(r.prefix[:])
	if size == 0 || size > uint32(r.cfg.maxHeaderSize) { //nolint:gosec
		return bh, r.fail(fmt.Errorf("%w: %d bytes at offset %d", errs.ErrInvalidHeaderSize, size, start))
	}

	hdr := r.frame.Resize(int(size))
	if _, err := io.ReadFull(r.r, hdr); err != nil {
		return bh, r.fail(fmt.Errorf("%w: blob header at offset %d: %v", errs.ErrUnexpectedEOF, start, err))
	}
	if err := bh.Unmarshal(hdr); err != nil {
		return bh, r.fail(fmt.Errorf("%w at offset %d: %w", errs.ErrInvalidBlobHeader, start, err))
	}
	if bh.DataSize < 0 {
		return bh, r.fail(fmt.Errorf("%w: negative datasize %d at offset %d", errs.ErrInvalidBlobHeader, bh.DataSize, start))
	}
	if int(bh.DataSize) > r.cfg.maxBodySize {
		return bh, r.fail(fmt.Errorf("%w: datasize %d at offset %d exceeds %d",
			errs.ErrBlobTooLarge, bh.DataSize, start, r.cfg.maxBodySize))
	}
	r.offset += int64(endian.LengthPrefixSize) + int64(size)

	return bh, nil
}

// fail records err as the sticky error and returns it.
func (r *Reader) fail(err error) error {
	r.err = err
	return err
}
