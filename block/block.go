package block

import (
	"fmt"
	"sort"

	"github.com/arloliu/osmpbf/coord"
	"github.com/arloliu/osmpbf/encoding"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/internal/hash"
	"github.com/arloliu/osmpbf/internal/options"
	"github.com/arloliu/osmpbf/schema"
	"github.com/arloliu/osmpbf/stringtable"
)

// groupRef locates the primitives of one kind inside one group.
type groupRef struct {
	group int // index into PrimitiveBlock.Groups
	n     int // number of primitives of the kind in the group
	start int // kind-wide index of the first primitive
}

// kvSpan locates one dense node's pairs in the group's keys_vals column.
type kvSpan struct {
	off int32
	n   int32
}

// Block is the decoded form of one OSMData payload.
//
// A Block is reused across payloads: Parse replaces its contents and starts a
// new generation. The payload passed to Parse must stay unmodified until the
// next Parse or Reset because strings alias it.
type Block struct {
	cfg  *Config
	gen  uint64
	null bool

	pb          schema.PrimitiveBlock
	strings     stringtable.Table
	transform   coord.Transform
	fingerprint uint64

	plain []groupRef
	dense []groupRef
	ways  []groupRef
	rels  []groupRef

	plainN, denseN, wayN, relN int

	unpacked bool
	// kvIndex holds one span per dense node, per dense group. It is built on
	// first tag access; a nil entry means the group has no tags.
	kvIndex [][]kvSpan
	kvBuilt bool
}

// New creates an empty, null Block.
//
// Parameters:
//   - opts: decoding options such as WithDenseUnpack
//
// Returns:
//   - *Block: block ready for Parse
//   - error: option error
func New(opts ...Option) (*Block, error) {
	cfg := &Config{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Block{cfg: cfg, null: true}, nil
}

// Parse decodes payload into the block.
//
// On failure the block is null: every count is zero and every cursor is
// empty. Views and cursors from before the call are invalidated either way.
//
// Returns:
//   - error: wraps errs.ErrInvalidPrimitiveBlock and the schema error
func (b *Block) Parse(payload []byte) error {
	b.Reset()

	if err := b.pb.Unmarshal(payload); err != nil {
		b.clear()
		return fmt.Errorf("%w: %w", errs.ErrInvalidPrimitiveBlock, err)
	}
	if err := b.index(); err != nil {
		b.clear()
		return fmt.Errorf("%w: %w", errs.ErrInvalidPrimitiveBlock, err)
	}

	b.strings = stringtable.NewTable(b.pb.Strings)
	b.transform = coord.Transform{
		Granularity: b.pb.Granularity,
		LatOffset:   b.pb.LatOffset,
		LonOffset:   b.pb.LonOffset,
	}
	b.fingerprint = hash.Sum(payload)
	b.null = false

	if b.cfg.denseUnpack {
		b.UnpackDense()
	}

	return nil
}

// Reset empties the block and invalidates all views and cursors.
func (b *Block) Reset() {
	b.gen++
	b.clear()
}

func (b *Block) clear() {
	b.null = true
	b.pb.Strings = b.pb.Strings[:0]
	b.pb.Groups = b.pb.Groups[:0]
	b.strings = stringtable.Table{}
	b.transform = coord.Default()
	b.fingerprint = 0
	b.plain, b.dense, b.ways, b.rels = b.plain[:0], b.dense[:0], b.ways[:0], b.rels[:0]
	b.plainN, b.denseN, b.wayN, b.relN = 0, 0, 0, 0
	b.unpacked = false
	b.kvIndex = b.kvIndex[:0]
	b.kvBuilt = false
}

// index validates the decoded groups and records where each kind lives.
// A group holding several kinds is indexed under each of them.
func (b *Block) index() error {
	if b.pb.Granularity <= 0 {
		return fmt.Errorf("granularity %d", b.pb.Granularity)
	}
	if b.pb.DateGranularity <= 0 {
		return fmt.Errorf("date_granularity %d", b.pb.DateGranularity)
	}

	for gi := range b.pb.Groups {
		g := &b.pb.Groups[gi]

		for i := range g.Nodes {
			if len(g.Nodes[i].Keys) != len(g.Nodes[i].Vals) {
				return fmt.Errorf("group %d node %d: %d keys, %d vals", gi, i, len(g.Nodes[i].Keys), len(g.Nodes[i].Vals))
			}
		}
		if n := len(g.Nodes); n > 0 {
			b.plain = append(b.plain, groupRef{group: gi, n: n, start: b.plainN})
			b.plainN += n
		}

		if d := g.Dense; d != nil && len(d.ID) > 0 {
			if err := checkDense(d); err != nil {
				return fmt.Errorf("group %d: %w", gi, err)
			}
			if d.Info != nil {
				encoding.DecodeInPlace(d.Info.Timestamp)
				encoding.DecodeInPlace(d.Info.Changeset)
				encoding.DecodeInPlace(d.Info.UID)
				encoding.DecodeInPlace(d.Info.UserSID)
			}
			b.dense = append(b.dense, groupRef{group: gi, n: len(d.ID), start: b.denseN})
			b.denseN += len(d.ID)
		}

		for i := range g.Ways {
			if len(g.Ways[i].Keys) != len(g.Ways[i].Vals) {
				return fmt.Errorf("group %d way %d: %d keys, %d vals", gi, i, len(g.Ways[i].Keys), len(g.Ways[i].Vals))
			}
		}
		if n := len(g.Ways); n > 0 {
			b.ways = append(b.ways, groupRef{group: gi, n: n, start: b.wayN})
			b.wayN += n
		}

		for i := range g.Relations {
			if err := checkRelation(&g.Relations[i]); err != nil {
				return fmt.Errorf("group %d relation %d: %w", gi, i, err)
			}
		}
		if n := len(g.Relations); n > 0 {
			b.rels = append(b.rels, groupRef{group: gi, n: n, start: b.relN})
			b.relN += n
		}
	}

	return nil
}

func checkDense(d *schema.DenseNodes) error {
	n := len(d.ID)
	if len(d.Lat) != n || len(d.Lon) != n {
		return fmt.Errorf("dense nodes: %d ids, %d lats, %d lons", n, len(d.Lat), len(d.Lon))
	}
	if d.Info == nil {
		return nil
	}

	for _, l := range [...]int{
		len(d.Info.Version), len(d.Info.Timestamp), len(d.Info.Changeset),
		len(d.Info.UID), len(d.Info.UserSID), len(d.Info.Visible),
	} {
		if l != 0 && l != n {
			return fmt.Errorf("dense info column of %d entries for %d nodes", l, n)
		}
	}

	return nil
}

func checkRelation(r *schema.Relation) error {
	if len(r.Keys) != len(r.Vals) {
		return fmt.Errorf("%d keys, %d vals", len(r.Keys), len(r.Vals))
	}
	if len(r.RolesSID) != len(r.MemIDs) || len(r.Types) != len(r.MemIDs) {
		return fmt.Errorf("%d roles, %d memids, %d types", len(r.RolesSID), len(r.MemIDs), len(r.Types))
	}

	return nil
}

// IsNull reports whether the block holds no decoded data, either because
// nothing was parsed yet or because the last Parse failed.
func (b *Block) IsNull() bool {
	return b.null
}

// Generation returns the current generation. It changes on every Parse and
// Reset.
func (b *Block) Generation() uint64 {
	return b.gen
}

// Fingerprint returns the xxhash of the parsed payload, or 0 for a null block.
func (b *Block) Fingerprint() uint64 {
	return b.fingerprint
}

// StringTable returns the block string table.
func (b *Block) StringTable() stringtable.Table {
	return b.strings
}

// Transform returns the block coordinate transform.
func (b *Block) Transform() coord.Transform {
	return b.transform
}

// DateGranularity returns the timestamp unit in milliseconds.
func (b *Block) DateGranularity() int32 {
	if b.null {
		return format.DefaultDateGranularity
	}

	return b.pb.DateGranularity
}

// PlainNodeCount returns the number of plain nodes.
func (b *Block) PlainNodeCount() int { return b.plainN }

// DenseNodeCount returns the number of dense nodes.
func (b *Block) DenseNodeCount() int { return b.denseN }

// NodeCount returns the number of nodes of either encoding.
func (b *Block) NodeCount() int { return b.plainN + b.denseN }

// WayCount returns the number of ways.
func (b *Block) WayCount() int { return b.wayN }

// RelationCount returns the number of relations.
func (b *Block) RelationCount() int { return b.relN }

// GroupCount returns the number of groups holding primitives of kind.
func (b *Block) GroupCount(kind format.PrimitiveKind) int {
	count := 0
	for gi := range b.pb.Groups {
		g := &b.pb.Groups[gi]
		nodes, ways, rels := g.Kinds()
		switch kind {
		case format.KindNode:
			if nodes != 0 {
				count++
			}
		case format.KindWay:
			if ways {
				count++
			}
		case format.KindRelation:
			if rels {
				count++
			}
		}
	}

	return count
}

// locate maps a kind-wide index to a group reference and an index inside it.
func locate(refs []groupRef, i int) (int, int, bool) {
	if i < 0 || len(refs) == 0 {
		return 0, 0, false
	}
	r := sort.Search(len(refs), func(k int) bool { return refs[k].start > i }) - 1
	if r < 0 || i-refs[r].start >= refs[r].n {
		return 0, 0, false
	}

	return r, i - refs[r].start, true
}

// PlainNode returns the i-th plain node.
func (b *Block) PlainNode(i int) (NodeView, bool) {
	r, idx, ok := locate(b.plain, i)
	if !ok {
		return NodeView{}, false
	}

	return b.plainView(r, idx), true
}

// DenseNode returns the i-th dense node.
//
// Unless the block is unpacked, this re-sums the group's columns from the
// start of the group and costs O(i). Use a cursor or UnpackDense for
// sequential or repeated access.
func (b *Block) DenseNode(i int) (NodeView, bool) {
	r, idx, ok := locate(b.dense, i)
	if !ok {
		return NodeView{}, false
	}

	d := b.denseCols(r)
	if b.unpacked {
		return b.denseView(r, idx, d.ID[idx], d.Lat[idx], d.Lon[idx]), true
	}

	return b.denseView(r, idx, encoding.At(d.ID, idx), encoding.At(d.Lat, idx), encoding.At(d.Lon, idx)), true
}

// Way returns the i-th way.
func (b *Block) Way(i int) (WayView, bool) {
	r, idx, ok := locate(b.ways, i)
	if !ok {
		return WayView{}, false
	}

	return WayView{view: view{blk: b, gen: b.gen, ref: int32(r), index: int32(idx)}}, true //nolint:gosec
}

// Relation returns the i-th relation.
func (b *Block) Relation(i int) (RelationView, bool) {
	r, idx, ok := locate(b.rels, i)
	if !ok {
		return RelationView{}, false
	}

	return RelationView{view: view{blk: b, gen: b.gen, ref: int32(r), index: int32(idx)}}, true //nolint:gosec
}

// IsUnpacked reports whether dense columns hold absolute values.
func (b *Block) IsUnpacked() bool {
	return b.unpacked
}

// UnpackDense rewrites every dense id, lat and lon column to absolute values
// in place. It runs once per block; later calls return immediately.
//
// Views created before the call stay valid. Cursors switch to direct reads
// at their next move.
func (b *Block) UnpackDense() {
	if b.unpacked || b.null {
		return
	}
	for r := range b.dense {
		d := b.denseCols(r)
		encoding.DecodeInPlace(d.ID)
		encoding.DecodeInPlace(d.Lat)
		encoding.DecodeInPlace(d.Lon)
	}
	b.unpacked = true
}

func (b *Block) denseCols(r int) *schema.DenseNodes {
	return b.pb.Groups[b.dense[r].group].Dense
}

func (b *Block) plainNode(r, idx int) *schema.Node {
	return &b.pb.Groups[b.plain[r].group].Nodes[idx]
}

func (b *Block) way(r, idx int) *schema.Way {
	return &b.pb.Groups[b.ways[r].group].Ways[idx]
}

func (b *Block) relation(r, idx int) *schema.Relation {
	return &b.pb.Groups[b.rels[r].group].Relations[idx]
}

func (b *Block) plainView(r, idx int) NodeView {
	n := b.plainNode(r, idx)
	return NodeView{
		view: view{blk: b, gen: b.gen, ref: int32(r), index: int32(idx)}, //nolint:gosec
		kind: format.NodePlain,
		id:   n.ID,
		lat:  n.Lat,
		lon:  n.Lon,
	}
}

func (b *Block) denseView(r, idx int, id, lat, lon int64) NodeView {
	return NodeView{
		view: view{blk: b, gen: b.gen, ref: int32(r), index: int32(idx)}, //nolint:gosec
		kind: format.NodeDense,
		id:   id,
		lat:  lat,
		lon:  lon,
	}
}

// denseTags returns the key/value pairs of dense node idx in group r,
// building the block's key/value index on first use.
func (b *Block) denseTags(r, idx int) []int32 {
	if !b.kvBuilt {
		b.buildKVIndex()
	}
	spans := b.kvIndex[r]
	if spans == nil {
		return nil
	}
	s := spans[idx]

	return b.denseCols(r).KeysVals[s.off : s.off+2*s.n]
}

// buildKVIndex scans every dense keys_vals column once. A missing trailing
// sentinel ends the node at the end of the column, and a key without a value
// is dropped.
func (b *Block) buildKVIndex() {
	b.kvIndex = b.kvIndex[:0]
	for r, ref := range b.dense {
		kv := b.denseCols(r).KeysVals
		if len(kv) == 0 {
			b.kvIndex = append(b.kvIndex, nil)
			continue
		}

		spans := make([]kvSpan, ref.n)
		pos := 0
		for i := range spans {
			start := pos
			for pos+1 < len(kv) && kv[pos] != 0 {
				pos += 2
			}
			spans[i] = kvSpan{off: int32(start), n: int32((pos - start) / 2)} //nolint:gosec
			if pos < len(kv) {
				if kv[pos] == 0 {
					pos++
				} else {
					pos = len(kv)
				}
			}
		}
		b.kvIndex = append(b.kvIndex, spans)
	}
	b.kvBuilt = true
}
