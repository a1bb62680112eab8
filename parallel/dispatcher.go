package parallel

import (
	"context"
	"errors"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/osmpbf/blob"
	"github.com/arloliu/osmpbf/block"
	"github.com/arloliu/osmpbf/internal/options"
	"github.com/arloliu/osmpbf/internal/pool"
)

// Handler processes one parsed block. The block and everything borrowed from
// it are only valid until the handler returns.
type Handler func(ctx context.Context, blk *block.Block) error

// Dispatcher hands out OSMData payloads from a shared blob.Reader.
type Dispatcher struct {
	mu      sync.Mutex
	r       *blob.Reader
	done    bool
	fetched int
}

// NewDispatcher creates a Dispatcher reading from r. The OSMHeader block is
// expected to have been consumed already, as blob.Open does; header blobs
// met later are skipped.
func NewDispatcher(r *blob.Reader) *Dispatcher {
	return &Dispatcher{r: r}
}

// Fetched returns the number of data payloads handed out so far.
func (d *Dispatcher) Fetched() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.fetched
}

// Fetch returns copies of up to n of the next OSMData payloads, in file
// order. It is safe to call from several goroutines; each payload is handed
// out once.
//
// Parameters:
//   - n: maximum number of payloads to return
//
// Returns:
//   - [][]byte: payloads owned by the caller; fewer than n at end of stream
//   - error: io.EOF once the stream is drained, or a read error
func (d *Dispatcher) Fetch(n int) ([][]byte, error) {
	var out [][]byte
	err := d.fetch(n, func(payload []byte) {
		out = append(out, append([]byte(nil), payload...))
	})
	if len(out) > 0 && errors.Is(err, io.EOF) {
		return out, nil
	}

	return out, err
}

// fetch passes up to n data payloads to keep while holding the lock. keep
// must copy the payload.
func (d *Dispatcher) fetch(n int, keep func([]byte)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done {
		return io.EOF
	}

	for got := 0; got < n; {
		b, err := d.r.ReadBlob()
		if errors.Is(err, io.EOF) {
			d.done = true
			return io.EOF
		}
		if err != nil {
			return err
		}
		if !b.IsData() {
			continue
		}
		keep(b.Payload)
		d.fetched++
		got++
	}

	return nil
}

// Run parses every remaining data block on the given number of workers and
// calls fn for each one.
//
// Each worker owns one block.Block and reuses it for every payload it
// fetches. The first error from a read, a parse or fn cancels the context
// passed to the other handlers and stops all fetching.
//
// Parameters:
//   - ctx: cancels the run between blocks
//   - workers: number of goroutines; values below 1 mean 1
//   - fn: block handler
//   - opts: WithBatchSize, WithBlockOptions
//
// Returns:
//   - error: the first failure, or ctx.Err() when cancelled
func (d *Dispatcher) Run(ctx context.Context, workers int, fn Handler, opts ...Option) error {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}
	workers = max(workers, 1)

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		blk, err := block.New(cfg.blockOpts...)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return d.work(ctx, blk, cfg.batchSize, fn)
		})
	}

	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context, blk *block.Block, batchSize int, fn Handler) error {
	bufs := make([]*pool.ByteBuffer, 0, batchSize)
	defer func() {
		for _, bb := range bufs {
			pool.PutBlockBuffer(bb)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := 0
		err := d.fetch(batchSize, func(payload []byte) {
			if n == len(bufs) {
				bufs = append(bufs, pool.GetBlockBuffer())
			}
			bb := bufs[n]
			bb.Reset()
			_, _ = bb.Write(payload)
			n++
		})
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		for _, bb := range bufs[:n] {
			if perr := blk.Parse(bb.Bytes()); perr != nil {
				return perr
			}
			if herr := fn(ctx, blk); herr != nil {
				return herr
			}
		}
		blk.Reset()

		if err != nil {
			return nil
		}
	}
}
