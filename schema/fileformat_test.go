package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

func TestBlobHeader_RoundTrip(t *testing.T) {
	h := BlobHeader{Type: format.BlobTypeNameData, IndexData: []byte{1, 2, 3}, DataSize: 123456}

	data := h.AppendTo(nil)
	require.Len(t, data, h.Size())

	var got BlobHeader
	require.NoError(t, got.Unmarshal(data))
	require.Equal(t, h, got)
}

func TestBlobHeader_MissingFields(t *testing.T) {
	t.Run("type", func(t *testing.T) {
		data := protowire.AppendTag(nil, 3, protowire.VarintType)
		data = protowire.AppendVarint(data, 10)

		var h BlobHeader
		err := h.Unmarshal(data)
		require.ErrorIs(t, err, errs.ErrMissingRequiredField)
		require.Contains(t, err.Error(), "type")
	})

	t.Run("datasize", func(t *testing.T) {
		data := protowire.AppendTag(nil, 1, protowire.BytesType)
		data = protowire.AppendString(data, format.BlobTypeNameData)

		var h BlobHeader
		err := h.Unmarshal(data)
		require.ErrorIs(t, err, errs.ErrMissingRequiredField)
		require.Contains(t, err.Error(), "datasize")
	})
}

func TestBlobHeader_Truncated(t *testing.T) {
	h := BlobHeader{Type: format.BlobTypeNameHeader, DataSize: 99}
	data := h.AppendTo(nil)

	var got BlobHeader
	require.ErrorIs(t, got.Unmarshal(data[:3]), errs.ErrTruncated)
}

func TestBlob_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		blob Blob
	}{
		{"raw", Blob{Compression: format.CompressionNone, Data: []byte("payload")}},
		{"zlib", Blob{Compression: format.CompressionZlib, Data: []byte{0x78, 0xda}, RawSize: 42, HasRawSize: true}},
		{"lzma", Blob{Compression: format.CompressionLZMA, Data: []byte{1}, RawSize: 7, HasRawSize: true}},
		{"lz4", Blob{Compression: format.CompressionLZ4, Data: []byte{2}, RawSize: 7, HasRawSize: true}},
		{"zstd", Blob{Compression: format.CompressionZstd, Data: []byte{3}, RawSize: 7, HasRawSize: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.blob.AppendTo(nil)
			require.Len(t, data, tt.blob.Size())

			var got Blob
			require.NoError(t, got.Unmarshal(data))
			require.Equal(t, tt.blob, got)
		})
	}
}

func TestBlob_RawOmitsRawSize(t *testing.T) {
	b := Blob{Compression: format.CompressionNone, Data: []byte("abc"), RawSize: 3, HasRawSize: true}
	data := b.AppendTo(nil)

	num, typ, n := protowire.ConsumeTag(data)
	require.Positive(t, n)
	require.Equal(t, protowire.Number(1), num)
	require.Equal(t, protowire.BytesType, typ)
}

func TestBlob_Invalid(t *testing.T) {
	t.Run("no payload", func(t *testing.T) {
		data := protowire.AppendTag(nil, 2, protowire.VarintType)
		data = protowire.AppendVarint(data, 10)

		var b Blob
		require.ErrorIs(t, b.Unmarshal(data), errs.ErrInvalidBlob)
	})

	t.Run("compressed without raw_size", func(t *testing.T) {
		data := protowire.AppendTag(nil, 3, protowire.BytesType)
		data = protowire.AppendBytes(data, []byte{1, 2})

		var b Blob
		require.ErrorIs(t, b.Unmarshal(data), errs.ErrInvalidBlob)
	})

	t.Run("bzip2 is reported as such", func(t *testing.T) {
		data := protowire.AppendTag(nil, 2, protowire.VarintType)
		data = protowire.AppendVarint(data, 4)
		data = protowire.AppendTag(data, 5, protowire.BytesType)
		data = protowire.AppendBytes(data, []byte("BZh9"))

		var b Blob
		require.NoError(t, b.Unmarshal(data))
		require.Equal(t, format.CompressionBzip2, b.Compression)
	})
}

func TestHeaderBlock_RoundTrip(t *testing.T) {
	h := HeaderBlock{
		BBox:                 &HeaderBBox{Left: -1800000000, Right: 1800000000, Top: 900000000, Bottom: -900000000},
		RequiredFeatures:     []string{format.FeatureOsmSchemaV06, format.FeatureDenseNodes},
		OptionalFeatures:     []string{"Sort.Type_then_ID"},
		WritingProgram:       "osmpbf-test",
		Source:               "unit",
		ReplicationTimestamp: 1700000000,
		ReplicationSequence:  4242,
		ReplicationBaseURL:   "https://example.org/replication",
	}

	data := h.AppendTo(nil)
	require.Len(t, data, h.Size())

	var got HeaderBlock
	require.NoError(t, got.Unmarshal(data))
	require.Equal(t, h, got)
}

func TestHeaderBlock_Empty(t *testing.T) {
	var h HeaderBlock
	require.NoError(t, h.Unmarshal(nil))
	require.Nil(t, h.BBox)
	require.Empty(t, h.RequiredFeatures)
}

func TestHeaderBBox_MissingEdge(t *testing.T) {
	data := protowire.AppendTag(nil, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, protowire.EncodeZigZag(-5))
	data = protowire.AppendTag(data, 2, protowire.VarintType)
	data = protowire.AppendVarint(data, protowire.EncodeZigZag(5))
	data = protowire.AppendTag(data, 3, protowire.VarintType)
	data = protowire.AppendVarint(data, protowire.EncodeZigZag(7))

	var bb HeaderBBox
	err := bb.Unmarshal(data)
	require.ErrorIs(t, err, errs.ErrMissingRequiredField)
	require.Contains(t, err.Error(), "bottom")
}
