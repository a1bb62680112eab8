// Package coord converts between the raw integer coordinates stored in a
// primitive block and real-world coordinates.
//
// A stored coordinate is scaled by the block granularity and shifted by the
// block offset to give nanodegrees:
//
//	nano = offset + granularity * raw
//
// Degrees are nanodegrees times 1e-9.
package coord

import (
	"math"

	"github.com/arloliu/osmpbf/format"
)

// NanoPerDegree is the number of nanodegrees in one degree.
const NanoPerDegree = 1e9

// Valid coordinate ranges in nanodegrees.
const (
	MaxLatNano int64 = 90 * NanoPerDegree
	MaxLonNano int64 = 180 * NanoPerDegree
)

// Transform holds the per-block scale and offsets.
type Transform struct {
	Granularity int32
	LatOffset   int64
	LonOffset   int64
}

// Default returns the transform of a block that sets none of the optional
// scale fields.
func Default() Transform {
	return Transform{Granularity: format.DefaultGranularity}
}

// LatNano returns the latitude of raw in nanodegrees.
func (t Transform) LatNano(raw int64) int64 {
	return t.LatOffset + int64(t.Granularity)*raw
}

// LonNano returns the longitude of raw in nanodegrees.
func (t Transform) LonNano(raw int64) int64 {
	return t.LonOffset + int64(t.Granularity)*raw
}

// Lat returns the latitude of raw in degrees.
func (t Transform) Lat(raw int64) float64 {
	return NanoToDegrees(t.LatNano(raw))
}

// Lon returns the longitude of raw in degrees.
func (t Transform) Lon(raw int64) float64 {
	return NanoToDegrees(t.LonNano(raw))
}

// RawLat is the inverse of LatNano, rounding to the nearest representable
// raw value.
func (t Transform) RawLat(nano int64) int64 {
	return roundDiv(nano-t.LatOffset, int64(t.Granularity))
}

// RawLon is the inverse of LonNano, rounding to the nearest representable
// raw value.
func (t Transform) RawLon(nano int64) int64 {
	return roundDiv(nano-t.LonOffset, int64(t.Granularity))
}

// NanoToDegrees converts nanodegrees to degrees.
func NanoToDegrees(nano int64) float64 {
	return float64(nano) * 1e-9
}

// DegreesToNano converts degrees to nanodegrees, rounding half away from zero.
func DegreesToNano(deg float64) int64 {
	return int64(math.Round(deg * NanoPerDegree))
}

// ValidNano reports whether lat and lon, in nanodegrees, are within the
// WGS84 range.
func ValidNano(lat, lon int64) bool {
	return lat >= -MaxLatNano && lat <= MaxLatNano && lon >= -MaxLonNano && lon <= MaxLonNano
}

// roundDiv divides rounding half away from zero. d must be positive.
func roundDiv(n, d int64) int64 {
	if n >= 0 {
		return (n + d/2) / d
	}

	return -((-n + d/2) / d)
}
