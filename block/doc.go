// Package block decodes and encodes OSM PBF primitive blocks.
//
// # Decoding
//
// A Block parses one decompressed OSMData payload and exposes its nodes, ways
// and relations through value-type views:
//
//	blk, _ := block.New()
//	if err := blk.Parse(payload); err != nil {
//	    return err // blk.IsNull() is now true
//	}
//
//	for c := blk.Nodes(format.NodeAny); c.Next(); {
//	    n := c.Current()
//	    fmt.Println(n.ID(), n.Lat(), n.Lon(), n.TagCount())
//	}
//
// Nodes come in two encodings that the views hide: plain nodes are stored one
// record each, dense nodes as delta-coded columns shared by a whole group.
// Dense columns are decoded in one of two ways:
//
//   - Lazy (default): cursors keep a running sum and may move one position
//     at a time in either direction. Random access with DenseNode(i) costs O(i).
//   - Unpacked: UnpackDense, or WithDenseUnpack at construction, rewrites the
//     columns to absolute values once, after which every access is O(1).
//
// The key/value index of dense nodes is built on the first tag access and
// reused for the rest of the block.
//
// Views and cursors borrow from the Block. They record the block generation
// they were created in; Parse and Reset start a new generation, after which
// old cursors report IsNull and old views panic when used.
//
// # Encoding
//
// An Encoder accumulates new primitives, interning their strings in a
// reference-counted pool, and serializes them with Flush:
//
//	enc, _ := block.NewEncoder()
//	n := enc.CreateNode(format.NodeDense)
//	n.SetID(42)
//	n.SetLatLon(51.5, -0.12)
//	n.AddTag("amenity", "cafe")
//	payload, err := enc.Flush(nil)
//
// Flush validates every record before touching any of them, so a failed Flush
// leaves the batch intact for the caller to fix and retry.
//
// Neither Block nor Encoder is safe for concurrent use. Use one per goroutine.
package block
