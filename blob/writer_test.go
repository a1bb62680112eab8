package blob

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/osmpbf/endian"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/schema"
)

// recordingWriter records the size of every Write call.
type recordingWriter struct {
	bytes.Buffer
	calls []int
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.calls = append(w.calls, len(p))
	return w.Buffer.Write(p)
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		return w.n, errors.New("disk full")
	}

	return len(p), nil
}

func TestWriter_FrameLayout(t *testing.T) {
	var rec recordingWriter
	w, err := NewWriter(&rec, WithCompression(format.CompressionNone))
	require.NoError(t, err)

	payload := []byte("hello pbf")
	require.NoError(t, w.WriteBlob(format.BlobData, payload, true))
	require.Len(t, rec.calls, 1, "a frame is emitted with a single Write")

	data := rec.Bytes()
	hdrLen := int(endian.LengthPrefix(data))

	var bh schema.BlobHeader
	require.NoError(t, bh.Unmarshal(data[4:4+hdrLen]))
	require.Equal(t, format.BlobTypeNameData, bh.Type)
	require.Equal(t, len(data)-4-hdrLen, int(bh.DataSize))

	var body schema.Blob
	require.NoError(t, body.Unmarshal(data[4+hdrLen:]))
	require.Equal(t, format.CompressionNone, body.Compression)
	require.False(t, body.HasRawSize)
	require.Equal(t, payload, body.Data)
}

func TestWriter_CompressedRecordsRawSize(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.Equal(t, format.CompressionZlib, w.Compression())

	payload := bytes.Repeat([]byte("way "), 4096)
	require.NoError(t, w.WriteBlob(format.BlobData, payload, true))

	data := buf.Bytes()
	hdrLen := int(endian.LengthPrefix(data))
	var body schema.Blob
	require.NoError(t, body.Unmarshal(data[4+hdrLen:]))
	require.Equal(t, format.CompressionZlib, body.Compression)
	require.True(t, body.HasRawSize)
	require.Equal(t, int32(len(payload)), body.RawSize)
	require.Less(t, len(body.Data), len(payload))
}

func TestWriter_UncompressedRequest(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithCompression(format.CompressionZstd))
	require.NoError(t, err)
	require.NoError(t, w.WriteBlob(format.BlobData, []byte("raw please"), false))

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	b, err := r.ReadBlob()
	require.NoError(t, err)
	require.Equal(t, format.CompressionNone, b.Compression)
	require.Equal(t, []byte("raw please"), b.Payload)
}

func TestWriter_InvalidInput(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, WithCompression(format.CompressionBzip2))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	w, err := NewWriter(&bytes.Buffer{}, WithWriterMaxBodySize(16))
	require.NoError(t, err)
	require.ErrorIs(t, w.WriteBlob(format.BlobUnknown, []byte("x"), false), errs.ErrInvalidBlob)
	require.ErrorIs(t, w.WriteBlob(format.BlobData, make([]byte, 64), false), errs.ErrBlobTooLarge)

	// Validation failures are local: the writer keeps working.
	require.NoError(t, w.WriteBlob(format.BlobData, []byte("small"), false))
}

func TestWriter_WriteErrorIsSticky(t *testing.T) {
	w, err := NewWriter(&failingWriter{n: 3})
	require.NoError(t, err)

	err = w.WriteBlob(format.BlobData, []byte("payload"), false)
	require.Error(t, err)
	require.Equal(t, int64(3), w.Offset())

	require.Equal(t, err, w.WriteBlob(format.BlobData, []byte("again"), false))
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.osm.pbf")

	h := NewHeader("osmpbf-test")
	h.BBox = &schema.HeaderBBox{Left: -1, Right: 1, Top: 1, Bottom: -1}

	w, err := Create(path, h, WithCompression(format.CompressionLZ4))
	require.NoError(t, err)
	require.NoError(t, w.WriteBlob(format.BlobData, []byte("block"), true))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, h.BBox, r.Header().BBox)
	b, err := r.ReadBlob()
	require.NoError(t, err)
	require.Equal(t, format.CompressionLZ4, b.Compression)
	require.Equal(t, []byte("block"), b.Payload)
}

func TestCreate_InvalidOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.osm.pbf")

	_, err := Create(path, NewHeader("x"), WithCompression(format.CompressionBzip2))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, statErr := os.Stat(path)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestCheckFeatures(t *testing.T) {
	require.NoError(t, CheckFeatures(&schema.HeaderBlock{}))
	require.NoError(t, CheckFeatures(NewHeader("x")))

	err := CheckFeatures(&schema.HeaderBlock{RequiredFeatures: []string{format.FeatureOsmSchemaV06, "HistoricalInformation"}})
	require.ErrorIs(t, err, errs.ErrUnsupportedFeature)
	require.Contains(t, err.Error(), "HistoricalInformation")
}
