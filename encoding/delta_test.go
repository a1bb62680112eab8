package encoding

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name     string
		absolute []int64
		deltas   []int64
	}{
		{"empty", []int64{}, []int64{}},
		{"single", []int64{42}, []int64{42}},
		{"ascending", []int64{10, 15, 20, 21}, []int64{10, 5, 5, 1}},
		{"mixed", []int64{10, 15, 12}, []int64{10, 5, -3}},
		{"negative start", []int64{-7, -7, 0}, []int64{-7, 0, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.deltas, Encode(make([]int64, 0), tt.absolute))
			require.Equal(t, tt.absolute, Decode(make([]int64, 0), tt.deltas))

			s := append([]int64(nil), tt.deltas...)
			DecodeInPlace(s)
			require.Equal(t, tt.absolute, append([]int64{}, s...))

			EncodeInPlace(s)
			require.Equal(t, tt.deltas, append([]int64{}, s...))
		})
	}
}

func TestAt(t *testing.T) {
	deltas := []int64{10, 5, -3}
	require.Equal(t, int64(10), At(deltas, 0))
	require.Equal(t, int64(15), At(deltas, 1))
	require.Equal(t, int64(12), At(deltas, 2))
}

func TestAll(t *testing.T) {
	deltas := []int32{1, 1, 1, 1}

	var got []int32
	for i, v := range All(deltas) {
		require.Equal(t, int32(i+1), v)
		got = append(got, v)
		if i == 2 {
			break
		}
	}
	require.Equal(t, []int32{1, 2, 3}, got)
}

func TestDeltaDecoder_ForwardBackwardSymmetry(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec
	absolute := make([]int64, 500)
	for i := range absolute {
		absolute[i] = rng.Int64N(math.MaxInt32) - math.MaxInt32/2
	}
	deltas := Encode(nil, absolute)

	var dec DeltaDecoder[int64]
	forward := make([]int64, len(deltas))
	for i, d := range deltas {
		forward[i] = dec.Forward(d)
	}
	require.Equal(t, absolute, forward)

	for i := len(deltas) - 1; i > 0; i-- {
		require.Equal(t, absolute[i-1], dec.Backward(deltas[i]))
	}
	require.Equal(t, absolute[0], dec.Value())

	dec.Reset()
	require.Zero(t, dec.Value())
	dec.Set(99)
	require.Equal(t, int64(99), dec.Value())
}

func TestDeltaEncoder(t *testing.T) {
	enc := NewDeltaEncoder[int64](4)
	enc.Write(10)
	enc.WriteSlice([]int64{15, 12})

	require.Equal(t, 3, enc.Len())
	require.Equal(t, []int64{10, 5, -3}, enc.Values())

	enc.Reset()
	require.Zero(t, enc.Len())
	enc.Write(3)
	require.Equal(t, []int64{3}, enc.Values())
}

func BenchmarkDecodeInPlace(b *testing.B) {
	deltas := make([]int64, 8000)
	for i := range deltas {
		deltas[i] = int64(i % 17)
	}
	work := make([]int64, len(deltas))

	b.ReportAllocs()
	for b.Loop() {
		copy(work, deltas)
		DecodeInPlace(work)
	}
}
