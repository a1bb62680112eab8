package coord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransform_Default(t *testing.T) {
	tr := Default()

	require.Equal(t, int64(50_000_000_000), tr.LatNano(500_000_000))
	require.Equal(t, int64(13_000_000_000), tr.LonNano(130_000_000))
	require.InDelta(t, 50.0, tr.Lat(500_000_000), 1e-9)
	require.InDelta(t, 13.0, tr.Lon(130_000_000), 1e-9)
}

func TestTransform_Offsets(t *testing.T) {
	tr := Transform{Granularity: 1000, LatOffset: 500, LonOffset: -250}

	require.Equal(t, int64(1500), tr.LatNano(1))
	require.Equal(t, int64(750), tr.LonNano(1))
	require.Equal(t, int64(1), tr.RawLat(1500))
	require.Equal(t, int64(1), tr.RawLon(750))
}

func TestTransform_RawRounding(t *testing.T) {
	tr := Default()

	tests := []struct {
		nano int64
		raw  int64
	}{
		{0, 0},
		{49, 0},
		{50, 1},
		{149, 1},
		{-49, 0},
		{-50, -1},
		{-151, -2},
		{51_507_350_000, 515_073_500},
	}

	for _, tt := range tests {
		require.Equal(t, tt.raw, tr.RawLat(tt.nano), "nano=%d", tt.nano)
		require.Equal(t, tt.raw, tr.RawLon(tt.nano), "nano=%d", tt.nano)
	}
}

func TestTransform_RoundTrip(t *testing.T) {
	transforms := []Transform{
		Default(),
		{Granularity: 1, LatOffset: 0, LonOffset: 0},
		{Granularity: 10_000, LatOffset: -123_456, LonOffset: 987_654},
	}

	for _, tr := range transforms {
		for _, raw := range []int64{-900_000, -1, 0, 1, 12_345, 900_000} {
			require.Equal(t, raw, tr.RawLat(tr.LatNano(raw)))
			require.Equal(t, raw, tr.RawLon(tr.LonNano(raw)))
		}
	}
}

func TestDegreesToNano(t *testing.T) {
	require.Equal(t, int64(51_507_350_000), DegreesToNano(51.50735))
	require.Equal(t, int64(-127_758_000), DegreesToNano(-0.127758))
	require.Equal(t, int64(0), DegreesToNano(0))
	require.InDelta(t, -0.127758, NanoToDegrees(-127_758_000), 1e-12)
}

func TestValidNano(t *testing.T) {
	require.True(t, ValidNano(0, 0))
	require.True(t, ValidNano(MaxLatNano, MaxLonNano))
	require.True(t, ValidNano(-MaxLatNano, -MaxLonNano))
	require.False(t, ValidNano(MaxLatNano+1, 0))
	require.False(t, ValidNano(0, -MaxLonNano-1))
}
