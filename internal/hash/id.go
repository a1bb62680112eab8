package hash

import "github.com/cespare/xxhash/v2"

// Sum computes the xxHash64 of a block payload.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
