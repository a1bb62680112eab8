// Package parallel decodes the data blocks of one PBF stream on several
// goroutines.
//
// A Dispatcher is the only object shared between workers. Its mutex covers
// reading the next few frames and copying their payloads out of the
// blob.Reader; parsing and handling run outside the lock, each worker on its
// own block.Block:
//
//	r, _ := blob.Open("planet.osm.pbf")
//	defer r.Close()
//
//	d := parallel.NewDispatcher(r)
//	err := d.Run(ctx, runtime.NumCPU(), func(ctx context.Context, blk *block.Block) error {
//	    nodes.Add(int64(blk.NodeCount()))
//	    return nil
//	})
//
// Frames are fetched in file order but handled in no particular order.
package parallel
