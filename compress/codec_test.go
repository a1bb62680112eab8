package compress

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZlib,
	format.CompressionLZMA,
	format.CompressionLZ4,
	format.CompressionZstd,
}

// blockLikePayload mimics a primitive block: a string table of repeated tag
// strings followed by small varints.
func blockLikePayload(size int) []byte {
	rng := rand.New(rand.NewSource(42))
	words := []string{"highway", "residential", "name", "building", "yes", "amenity", "cafe"}

	var buf bytes.Buffer
	for buf.Len() < size {
		if rng.Intn(4) == 0 {
			buf.WriteString(words[rng.Intn(len(words))])
		} else {
			buf.WriteByte(byte(rng.Intn(16)))
		}
	}

	return buf.Bytes()[:size]
}

func TestCodec_RoundTrip(t *testing.T) {
	sizes := []int{0, 1, 100, 64 * 1024, 300 * 1024}

	for _, ct := range allTypes {
		for _, size := range sizes {
			t.Run(fmt.Sprintf("%s/%d", ct, size), func(t *testing.T) {
				codec, err := GetCodec(ct)
				require.NoError(t, err)
				require.Equal(t, ct, codec.Type())

				src := blockLikePayload(size)
				compressed, err := codec.Compress(nil, src)
				require.NoError(t, err)

				dst := make([]byte, len(src))
				require.NoError(t, codec.Decompress(dst, compressed))
				require.Equal(t, src, dst)
			})
		}
	}
}

func TestCodec_CompressAppends(t *testing.T) {
	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := CreateCodec(ct)
			require.NoError(t, err)

			prefix := []byte("prefix")
			src := blockLikePayload(4096)
			out, err := codec.Compress(bytes.Clone(prefix), src)
			require.NoError(t, err)
			require.Equal(t, prefix, out[:len(prefix)])

			dst := make([]byte, len(src))
			require.NoError(t, codec.Decompress(dst, out[len(prefix):]))
			require.Equal(t, src, dst)
		})
	}
}

func TestCodec_BoundHoldsForIncompressibleData(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	src := make([]byte, 200*1024)
	rng.Read(src)

	for _, ct := range []format.CompressionType{format.CompressionZlib, format.CompressionLZ4, format.CompressionZstd} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			bound := codec.CompressBound(len(src))
			dst := make([]byte, 0, bound)
			out, err := codec.Compress(dst, src)
			require.NoError(t, err)
			require.LessOrEqual(t, len(out), bound)
			require.Equal(t, &dst[:1][0], &out[:1][0], "compress within bound must not reallocate")
		})
	}
}

func TestCodec_RawSizeMismatch(t *testing.T) {
	src := blockLikePayload(2048)

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil, src)
			require.NoError(t, err)

			short := make([]byte, len(src)-10)
			err = codec.Decompress(short, compressed)
			require.Error(t, err)

			long := make([]byte, len(src)+10)
			err = codec.Decompress(long, compressed)
			require.Error(t, err)
		})
	}
}

func TestZlibCodec_SizeMismatchIsTyped(t *testing.T) {
	codec := NewZlibCodec()
	src := blockLikePayload(1000)
	compressed, err := codec.Compress(nil, src)
	require.NoError(t, err)

	err = codec.Decompress(make([]byte, 999), compressed)
	require.ErrorIs(t, err, errs.ErrRawSizeMismatch)

	err = codec.Decompress(make([]byte, 1001), compressed)
	require.ErrorIs(t, err, errs.ErrRawSizeMismatch)
}

func TestCodec_CorruptInput(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33}

	for _, ct := range []format.CompressionType{format.CompressionZlib, format.CompressionLZMA, format.CompressionZstd} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)
			require.Error(t, codec.Decompress(make([]byte, 64), garbage))
		})
	}
}

func TestCreateCodec_Unsupported(t *testing.T) {
	_, err := CreateCodec(format.CompressionBzip2)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, err = GetCodec(format.CompressionType(0xff))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestZlibCodec_ReaderReuse(t *testing.T) {
	codec := NewZlibCodec()
	for i := 0; i < 5; i++ {
		src := blockLikePayload(1000 + i*100)
		compressed, err := codec.Compress(nil, src)
		require.NoError(t, err)

		dst := make([]byte, len(src))
		require.NoError(t, codec.Decompress(dst, compressed))
		require.Equal(t, src, dst)
	}
}

func BenchmarkCodec_Decompress(b *testing.B) {
	src := blockLikePayload(1 << 20)
	for _, ct := range allTypes {
		b.Run(ct.String(), func(b *testing.B) {
			codec, _ := GetCodec(ct)
			compressed, _ := codec.Compress(nil, src)
			dst := make([]byte, len(src))
			b.SetBytes(int64(len(src)))
			for b.Loop() {
				_ = codec.Decompress(dst, compressed)
			}
		})
	}
}
