// Package encoding provides the delta coding used by the OSM PBF format.
//
// Dense node ids and coordinates, way refs, relation member ids and most
// DenseInfo columns are stored as the difference from the previous element,
// with the first element stored as is. Absolute values are reconstructed by a
// running sum.
//
// Two decoding styles are offered because callers pick their cost model:
//
//   - DecodeInPlace rewrites a column to absolute values once, after which
//     every element is O(1) to read. The input slice is mutated.
//   - DeltaDecoder keeps a running accumulator that moves one position at a
//     time in either direction without touching the column. Random access
//     through At costs O(i).
package encoding
