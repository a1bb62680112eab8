package parallel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/osmpbf/blob"
	"github.com/arloliu/osmpbf/block"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
)

// buildStream writes blocks data blocks of perBlock dense nodes each.
// Node ids run from 1 upwards across the whole stream.
func buildStream(t *testing.T, blocks, perBlock int) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := blob.NewWriter(&buf, blob.WithCompression(format.CompressionZlib))
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(blob.NewHeader("parallel-test")))

	enc, err := block.NewEncoder()
	require.NoError(t, err)

	id := int64(1)
	for range blocks {
		for range perBlock {
			n := enc.CreateNode(format.NodeDense)
			n.SetID(id)
			n.SetLatLon(1, 1)
			id++
		}
		payload, err := enc.Flush(nil)
		require.NoError(t, err)
		require.NoError(t, w.WriteBlob(format.BlobData, payload, true))
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func newDispatcher(t *testing.T, stream []byte) *Dispatcher {
	t.Helper()

	r, err := blob.NewReader(bytes.NewReader(stream))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	_, err = r.ReadHeader()
	require.NoError(t, err)

	return NewDispatcher(r)
}

func TestDispatcher_Run(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		opts    []Option
	}{
		{name: "single worker", workers: 1},
		{name: "four workers", workers: 4},
		{name: "zero workers", workers: 0},
		{name: "batch of one", workers: 3, opts: []Option{WithBatchSize(1)}},
		{name: "unpacked", workers: 2, opts: []Option{WithBlockOptions(block.WithDenseUnpack(true))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, buildStream(t, 10, 50))

			var nodes, idSum atomic.Int64
			err := d.Run(context.Background(), tt.workers, func(_ context.Context, blk *block.Block) error {
				nodes.Add(int64(blk.NodeCount()))
				for n := range blk.AllNodes(format.NodeAny) {
					idSum.Add(n.ID())
				}

				return nil
			}, tt.opts...)
			require.NoError(t, err)
			require.Equal(t, int64(500), nodes.Load())
			require.Equal(t, int64(500*501/2), idSum.Load())
			require.Equal(t, 10, d.Fetched())
		})
	}
}

func TestDispatcher_Fetch(t *testing.T) {
	d := newDispatcher(t, buildStream(t, 5, 3))

	first, err := d.Fetch(2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := d.Fetch(10)
	require.NoError(t, err)
	require.Len(t, rest, 3)

	_, err = d.Fetch(1)
	require.ErrorIs(t, err, io.EOF)

	// payloads are independent copies
	blk, err := block.New()
	require.NoError(t, err)
	require.NoError(t, blk.Parse(first[0]))
	require.Equal(t, 3, blk.NodeCount())
	n, ok := blk.DenseNode(0)
	require.True(t, ok)
	require.Equal(t, int64(1), n.ID())
}

func TestDispatcher_HandlerError(t *testing.T) {
	d := newDispatcher(t, buildStream(t, 20, 5))
	boom := errors.New("boom")

	var calls atomic.Int32
	err := d.Run(context.Background(), 4, func(context.Context, *block.Block) error {
		if calls.Add(1) == 3 {
			return boom
		}

		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestDispatcher_Cancelled(t *testing.T) {
	d := newDispatcher(t, buildStream(t, 5, 5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx, 2, func(context.Context, *block.Block) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, d.Fetched())
}

func TestDispatcher_CorruptBlock(t *testing.T) {
	var buf bytes.Buffer
	w, err := blob.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(blob.NewHeader("parallel-test")))
	require.NoError(t, w.WriteBlob(format.BlobData, []byte{0xff, 0xff}, false))
	require.NoError(t, w.Close())

	d := newDispatcher(t, buf.Bytes())
	err = d.Run(context.Background(), 2, func(context.Context, *block.Block) error { return nil })
	require.ErrorIs(t, err, errs.ErrInvalidPrimitiveBlock)
}

func TestDispatcher_InvalidOption(t *testing.T) {
	d := newDispatcher(t, buildStream(t, 1, 1))
	err := d.Run(context.Background(), 1, func(context.Context, *block.Block) error { return nil }, WithBatchSize(0))
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}
