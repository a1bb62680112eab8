// Package osmpbf reads and writes OpenStreetMap PBF files.
//
// A PBF file is a sequence of length-prefixed frames. The first frame holds
// an OSMHeader block; every following OSMData frame holds one primitive
// block of nodes, ways and relations.
//
// # Package Structure
//
//   - blob: frame reading and writing, compression, header feature checks
//   - block: primitive block decoding (Block, views, cursors) and encoding
//     (Encoder, builders)
//   - stringtable: the per-block string table, read and write side
//   - coord: raw coordinate scaling
//   - schema: protobuf wire messages
//   - parallel: multi-goroutine block dispatch
//
// This package provides top-level wrappers for the common cases.
//
// # Basic Usage
//
// Reading:
//
//	r, err := osmpbf.Open("region.osm.pbf")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	blk, _ := osmpbf.NewBlock()
//	for {
//	    b, err := r.ReadBlob()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    if !b.IsData() {
//	        continue
//	    }
//	    if err := blk.Parse(b.Payload); err != nil {
//	        return err
//	    }
//	    for p := range blk.All() {
//	        fmt.Println(p.Type(), p.ID())
//	    }
//	}
//
// Writing:
//
//	w, _ := osmpbf.Create("out.osm.pbf", "my-tool")
//	defer w.Close()
//
//	enc, _ := osmpbf.NewEncoder()
//	n := enc.CreateNode(format.NodeDense)
//	n.SetID(1)
//	n.SetLatLon(50, 13)
//	payload, _ := enc.Flush(nil)
//	_ = w.WriteBlob(format.BlobData, payload, true)
package osmpbf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/osmpbf/blob"
	"github.com/arloliu/osmpbf/block"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/parallel"
)

// DefaultWritingProgram is recorded in headers written by Create.
const DefaultWritingProgram = "osmpbf"

var defaultWriterOptions = []blob.WriterOption{
	blob.WithCompression(format.CompressionZlib),
}

// Open opens a PBF file and reads its header. It fails with
// errs.ErrUnsupportedFeature when the file requires a feature this module
// cannot decode.
func Open(path string, opts ...blob.ReaderOption) (*blob.Reader, error) {
	return blob.Open(path, opts...)
}

// Create creates a PBF file and writes a header naming writingProgram.
// Blocks are zlib compressed unless opts choose otherwise.
//
// Parameters:
//   - path: file to create or truncate
//   - writingProgram: header writing program; DefaultWritingProgram when empty
//   - opts: writer options applied after the defaults
//
// Returns:
//   - *blob.Writer: writer positioned after the header
//   - error: option, file or write error
func Create(path, writingProgram string, opts ...blob.WriterOption) (*blob.Writer, error) {
	if writingProgram == "" {
		writingProgram = DefaultWritingProgram
	}
	allOpts := append(append([]blob.WriterOption(nil), defaultWriterOptions...), opts...)

	return blob.Create(path, blob.NewHeader(writingProgram), allOpts...)
}

// NewBlock creates a reusable primitive block decoder.
func NewBlock(opts ...block.Option) (*block.Block, error) {
	return block.New(opts...)
}

// NewEncoder creates a primitive block encoder.
func NewEncoder(opts ...block.EncoderOption) (*block.Encoder, error) {
	return block.NewEncoder(opts...)
}

// Stats counts the content of a PBF stream.
type Stats struct {
	Blocks     int
	PlainNodes int
	DenseNodes int
	Ways       int
	Relations  int
}

// Nodes returns the number of nodes of either encoding.
func (s Stats) Nodes() int {
	return s.PlainNodes + s.DenseNodes
}

func (s *Stats) add(blk *block.Block) {
	s.Blocks++
	s.PlainNodes += blk.PlainNodeCount()
	s.DenseNodes += blk.DenseNodeCount()
	s.Ways += blk.WayCount()
	s.Relations += blk.RelationCount()
}

// Count decodes every remaining data block of r on the given number of
// workers and returns the totals.
//
// Parameters:
//   - ctx: cancels the workers
//   - r: reader positioned after the header
//   - workers: decoding goroutines; values below 1 mean one
//   - opts: dispatcher options such as the batch size
//
// Returns:
//   - Stats: totals over every block decoded
//   - error: the first read, parse or context error
func Count(ctx context.Context, r *blob.Reader, workers int, opts ...parallel.Option) (Stats, error) {
	var (
		mu    sync.Mutex
		total Stats
	)

	d := parallel.NewDispatcher(r)
	err := d.Run(ctx, workers, func(_ context.Context, blk *block.Block) error {
		mu.Lock()
		total.add(blk)
		mu.Unlock()

		return nil
	}, opts...)

	return total, err
}

// Recode reads every remaining data block of src, re-encodes its primitives
// through a block.Encoder and writes the result to dst in the same order.
//
// dense selects how nodes are written: format.NodeDense or format.NodePlain
// convert every node, format.NodeAny keeps each node's encoding.
//
// Returns:
//   - Stats: counts of the blocks written
//   - error: the first read, parse, encode or write error
func Recode(dst *blob.Writer, src *blob.Reader, nodes format.NodeKind, encOpts ...block.EncoderOption) (Stats, error) {
	var stats Stats

	blk, err := block.New()
	if err != nil {
		return stats, err
	}
	enc, err := block.NewEncoder(encOpts...)
	if err != nil {
		return stats, err
	}

	var payload []byte
	for {
		b, err := src.ReadBlob()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if !b.IsData() {
			continue
		}
		if err := blk.Parse(b.Payload); err != nil {
			return stats, fmt.Errorf("block at offset %d: %w", b.Offset, err)
		}

		for p := range blk.All() {
			if n, ok := p.(block.NodeView); ok && nodes != format.NodeAny {
				enc.AppendNodeAs(n, nodes)
				continue
			}
			enc.Append(p)
		}

		payload, err = enc.Flush(payload[:0])
		if err != nil {
			return stats, fmt.Errorf("block at offset %d: %w", b.Offset, err)
		}
		if err := dst.WriteBlob(format.BlobData, payload, true); err != nil {
			return stats, err
		}
		stats.add(blk)
	}
}
