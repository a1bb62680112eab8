package osmpbf

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/osmpbf/blob"
	"github.com/arloliu/osmpbf/block"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/schema"
)

// writeSample writes two data blocks: mixed nodes plus a way, then a
// relation.
func writeSample(t *testing.T, path string, opts ...blob.WriterOption) {
	t.Helper()

	w, err := Create(path, "", opts...)
	require.NoError(t, err)

	enc, err := NewEncoder()
	require.NoError(t, err)

	p := enc.CreateNode(format.NodePlain)
	p.SetID(1)
	p.SetLatLon(50, 13)
	p.AddTag("amenity", "cafe")
	for id := int64(2); id <= 4; id++ {
		n := enc.CreateNode(format.NodeDense)
		n.SetID(id)
		n.SetLatLon(50+float64(id)/1000, 13)
	}
	way := enc.CreateWay()
	way.SetID(10)
	way.AddRef(1)
	way.AddRef(2)
	way.AddTag("highway", "path")

	payload, err := enc.Flush(nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteBlob(format.BlobData, payload, true))

	rel := enc.CreateRelation()
	rel.SetID(20)
	rel.AddMember(10, format.MemberWay, "outer")
	payload, err = enc.Flush(payload[:0])
	require.NoError(t, err)
	require.NoError(t, w.WriteBlob(format.BlobData, payload, true))

	require.NoError(t, w.Close())
}

func TestCreateOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.osm.pbf")
	writeSample(t, path)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	require.NotNil(t, h)
	require.Equal(t, DefaultWritingProgram, h.WritingProgram)
	require.Contains(t, h.RequiredFeatures, "DenseNodes")

	b, err := r.ReadBlob()
	require.NoError(t, err)
	require.True(t, b.IsData())
	require.Equal(t, format.CompressionZlib, b.Compression)

	blk, err := NewBlock()
	require.NoError(t, err)
	require.NoError(t, blk.Parse(b.Payload))
	require.Equal(t, 1, blk.PlainNodeCount())
	require.Equal(t, 3, blk.DenseNodeCount())
	require.Equal(t, 1, blk.WayCount())
}

func TestCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.osm.pbf")
	writeSample(t, path, blob.WithCompression(format.CompressionZstd))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	stats, err := Count(context.Background(), r, 3)
	require.NoError(t, err)
	require.Equal(t, Stats{Blocks: 2, PlainNodes: 1, DenseNodes: 3, Ways: 1, Relations: 1}, stats)
	require.Equal(t, 4, stats.Nodes())
}

func TestRecode(t *testing.T) {
	tests := []struct {
		name      string
		nodes     format.NodeKind
		wantPlain int
		wantDense int
	}{
		{name: "keep", nodes: format.NodeAny, wantPlain: 1, wantDense: 3},
		{name: "dense", nodes: format.NodeDense, wantPlain: 0, wantDense: 4},
		{name: "plain", nodes: format.NodePlain, wantPlain: 4, wantDense: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "in.osm.pbf")
			out := filepath.Join(dir, "out.osm.pbf")
			writeSample(t, in)

			src, err := Open(in)
			require.NoError(t, err)
			defer src.Close()
			dst, err := Create(out, "recode-test", blob.WithCompression(format.CompressionLZ4))
			require.NoError(t, err)

			stats, err := Recode(dst, src, tt.nodes)
			require.NoError(t, err)
			require.Equal(t, 2, stats.Blocks)
			require.NoError(t, dst.Close())

			r, err := Open(out)
			require.NoError(t, err)
			defer r.Close()
			require.Equal(t, "recode-test", r.Header().WritingProgram)

			got, err := Count(context.Background(), r, 1)
			require.NoError(t, err)
			require.Equal(t, tt.wantPlain, got.PlainNodes)
			require.Equal(t, tt.wantDense, got.DenseNodes)
			require.Equal(t, 1, got.Ways)
			require.Equal(t, 1, got.Relations)
		})
	}
}

func TestRecodePreservesContent(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.osm.pbf")
	out := filepath.Join(dir, "out.osm.pbf")
	writeSample(t, in)

	src, err := Open(in)
	require.NoError(t, err)
	defer src.Close()
	dst, err := Create(out, "")
	require.NoError(t, err)
	_, err = Recode(dst, src, format.NodeAny)
	require.NoError(t, err)
	require.NoError(t, dst.Close())

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()
	b, err := r.ReadBlob()
	require.NoError(t, err)

	blk, err := NewBlock(block.WithDenseUnpack(true))
	require.NoError(t, err)
	require.NoError(t, blk.Parse(b.Payload))

	n, ok := blk.PlainNode(0)
	require.True(t, ok)
	v, found := n.FindTag("amenity")
	require.True(t, found)
	require.Equal(t, "cafe", v)
	require.InDelta(t, 50.0, n.Lat(), 1e-7)

	d, ok := blk.DenseNode(2)
	require.True(t, ok)
	require.Equal(t, int64(4), d.ID())
	require.InDelta(t, 50.004, d.Lat(), 1e-7)

	w, ok := blk.Way(0)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2}, w.AppendRefs(nil))
}

func TestOpenUnsupportedFeature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.osm.pbf")
	h := &schema.HeaderBlock{RequiredFeatures: []string{"OsmSchema-V0.6", "UnknownExtension-V9"}}
	w, err := blob.Create(path, h)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, errs.ErrUnsupportedFeature)
	require.ErrorContains(t, err, "UnknownExtension-V9")
}
