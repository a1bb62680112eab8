package block

import (
	"github.com/arloliu/osmpbf/encoding"
	"github.com/arloliu/osmpbf/format"
)

// segment is a run of primitives of one kind inside one group.
type segment struct {
	ref   int  // index into the block's groupRef list for the kind
	dense bool // node segments only
	n     int
}

// walker is the position state machine shared by the primitive cursors.
// seg == -1 is before-first, seg == len(segs) is past-last.
type walker struct {
	segs []segment
	seg  int
	idx  int
}

func newWalker(segs []segment) walker {
	return walker{segs: segs, seg: -1}
}

func (w *walker) positioned() bool {
	return w.seg >= 0 && w.seg < len(w.segs)
}

func (w *walker) reset() {
	w.seg, w.idx = -1, 0
}

// forward moves one primitive ahead. It reports whether the walker is
// positioned afterwards and whether it entered a new segment.
func (w *walker) forward() (ok, entered bool) {
	if w.seg >= len(w.segs) {
		return false, false
	}
	if w.seg < 0 {
		w.seg, w.idx = 0, 0
		return w.seg < len(w.segs), true
	}

	w.idx++
	if w.idx < w.segs[w.seg].n {
		return true, false
	}
	w.seg++
	w.idx = 0

	return w.seg < len(w.segs), w.seg < len(w.segs)
}

// backward moves one primitive back. It reports whether the walker is
// positioned afterwards and whether it entered a new segment from its end.
func (w *walker) backward() (ok, entered bool) {
	if w.seg < 0 {
		return false, false
	}
	if w.seg >= len(w.segs) {
		w.seg = len(w.segs) - 1
		if w.seg < 0 {
			w.reset()
			return false, false
		}
		w.idx = w.segs[w.seg].n - 1

		return true, true
	}

	w.idx--
	if w.idx >= 0 {
		return true, false
	}
	w.seg--
	if w.seg < 0 {
		w.reset()
		return false, false
	}
	w.idx = w.segs[w.seg].n - 1

	return true, true
}

// NodeCursor walks the nodes of the selected encodings across all groups in
// block order. Within a group holding both encodings, plain nodes come first.
//
// A new cursor is before the first node. Next and Previous move exactly one
// node and report whether the cursor is positioned on one.
type NodeCursor struct {
	blk *Block
	gen uint64
	w   walker

	// running sums for lazy dense decoding
	id, lat, lon encoding.DeltaDecoder[int64]
}

// Nodes returns a cursor over the nodes of the given encodings.
//
// The cursor starts before the first node; call Next to advance. It follows
// block order, so with format.NodeAny plain nodes of a group come before its
// dense nodes.
//
// Parameters:
//   - kinds: format.NodePlain, format.NodeDense or both
//
// Returns:
//   - *NodeCursor: cursor bound to the current parse of the block
func (b *Block) Nodes(kinds format.NodeKind) *NodeCursor {
	var segs []segment
	pi, di := 0, 0
	for pi < len(b.plain) || di < len(b.dense) {
		// Merge the two lists by group, plain first on ties.
		takePlain := di >= len(b.dense) || (pi < len(b.plain) && b.plain[pi].group <= b.dense[di].group)
		if takePlain {
			if kinds.Has(format.NodePlain) {
				segs = append(segs, segment{ref: pi, n: b.plain[pi].n})
			}
			pi++
		} else {
			if kinds.Has(format.NodeDense) {
				segs = append(segs, segment{ref: di, dense: true, n: b.dense[di].n})
			}
			di++
		}
	}

	return &NodeCursor{blk: b, gen: b.gen, w: newWalker(segs)}
}

func (c *NodeCursor) stale() bool {
	return c.blk.gen != c.gen
}

// IsNull reports whether the cursor is before the first or past the last
// node, or its block was re-parsed.
func (c *NodeCursor) IsNull() bool {
	return c.stale() || !c.w.positioned()
}

// Reset moves the cursor before the first node.
func (c *NodeCursor) Reset() {
	c.w.reset()
}

func (c *NodeCursor) lazy() bool {
	return c.w.segs[c.w.seg].dense && !c.blk.unpacked
}

// Next moves to the next node.
func (c *NodeCursor) Next() bool {
	if c.stale() {
		return false
	}
	ok, entered := c.w.forward()
	if !ok || !c.lazy() {
		return ok
	}

	d := c.blk.denseCols(c.w.segs[c.w.seg].ref)
	if entered {
		c.id.Reset()
		c.lat.Reset()
		c.lon.Reset()
	}
	c.id.Forward(d.ID[c.w.idx])
	c.lat.Forward(d.Lat[c.w.idx])
	c.lon.Forward(d.Lon[c.w.idx])

	return true
}

// Previous moves to the previous node. Entering a lazily decoded dense
// group from its end re-sums the whole group.
func (c *NodeCursor) Previous() bool {
	if c.stale() {
		return false
	}
	leftSeg, leftIdx := c.w.seg, c.w.idx
	ok, entered := c.w.backward()
	if !ok || !c.lazy() {
		return ok
	}

	if entered {
		d := c.blk.denseCols(c.w.segs[c.w.seg].ref)
		c.id.Set(encoding.At(d.ID, c.w.idx))
		c.lat.Set(encoding.At(d.Lat, c.w.idx))
		c.lon.Set(encoding.At(d.Lon, c.w.idx))

		return true
	}

	d := c.blk.denseCols(c.w.segs[leftSeg].ref)
	c.id.Backward(d.ID[leftIdx])
	c.lat.Backward(d.Lat[leftIdx])
	c.lon.Backward(d.Lon[leftIdx])

	return true
}

// Current returns the node under the cursor, or a zero NodeView when the
// cursor is null.
func (c *NodeCursor) Current() NodeView {
	if c.IsNull() {
		return NodeView{}
	}

	s := c.w.segs[c.w.seg]
	if !s.dense {
		return c.blk.plainView(s.ref, c.w.idx)
	}
	if c.blk.unpacked {
		d := c.blk.denseCols(s.ref)
		return c.blk.denseView(s.ref, c.w.idx, d.ID[c.w.idx], d.Lat[c.w.idx], d.Lon[c.w.idx])
	}

	return c.blk.denseView(s.ref, c.w.idx, c.id.Value(), c.lat.Value(), c.lon.Value())
}

func kindSegments(refs []groupRef) []segment {
	segs := make([]segment, len(refs))
	for i, r := range refs {
		segs[i] = segment{ref: i, n: r.n}
	}

	return segs
}

// WayCursor walks all ways across groups in block order.
type WayCursor struct {
	blk *Block
	gen uint64
	w   walker
}

// Ways returns a cursor over all ways.
func (b *Block) Ways() *WayCursor {
	return &WayCursor{blk: b, gen: b.gen, w: newWalker(kindSegments(b.ways))}
}

// IsNull reports whether the cursor is not positioned on a way.
func (c *WayCursor) IsNull() bool { return c.blk.gen != c.gen || !c.w.positioned() }

// Reset moves the cursor before the first way.
func (c *WayCursor) Reset() { c.w.reset() }

// Next moves to the next way.
func (c *WayCursor) Next() bool {
	if c.blk.gen != c.gen {
		return false
	}
	ok, _ := c.w.forward()

	return ok
}

// Previous moves to the previous way.
func (c *WayCursor) Previous() bool {
	if c.blk.gen != c.gen {
		return false
	}
	ok, _ := c.w.backward()

	return ok
}

// Current returns the way under the cursor, or a zero WayView.
func (c *WayCursor) Current() WayView {
	if c.IsNull() {
		return WayView{}
	}

	return WayView{view: view{blk: c.blk, gen: c.gen, ref: int32(c.w.segs[c.w.seg].ref), index: int32(c.w.idx)}} //nolint:gosec
}

// RelationCursor walks all relations across groups in block order.
type RelationCursor struct {
	blk *Block
	gen uint64
	w   walker
}

// Relations returns a cursor over all relations.
func (b *Block) Relations() *RelationCursor {
	return &RelationCursor{blk: b, gen: b.gen, w: newWalker(kindSegments(b.rels))}
}

// IsNull reports whether the cursor is not positioned on a relation.
func (c *RelationCursor) IsNull() bool { return c.blk.gen != c.gen || !c.w.positioned() }

// Reset moves the cursor before the first relation.
func (c *RelationCursor) Reset() { c.w.reset() }

// Next moves to the next relation.
func (c *RelationCursor) Next() bool {
	if c.blk.gen != c.gen {
		return false
	}
	ok, _ := c.w.forward()

	return ok
}

// Previous moves to the previous relation.
func (c *RelationCursor) Previous() bool {
	if c.blk.gen != c.gen {
		return false
	}
	ok, _ := c.w.backward()

	return ok
}

// Current returns the relation under the cursor, or a zero RelationView.
func (c *RelationCursor) Current() RelationView {
	if c.IsNull() {
		return RelationView{}
	}

	return RelationView{view: view{blk: c.blk, gen: c.gen, ref: int32(c.w.segs[c.w.seg].ref), index: int32(c.w.idx)}} //nolint:gosec
}

// deltaCursor walks one delta-coded column with a running sum.
// pos == -1 is before-first, pos == len(deltas) is past-last.
type deltaCursor struct {
	owner  view
	deltas []int64
	pos    int
	sum    encoding.DeltaDecoder[int64]
}

func (c *deltaCursor) isNull() bool {
	return c.owner.blk.gen != c.owner.gen || c.pos < 0 || c.pos >= len(c.deltas)
}

func (c *deltaCursor) next() bool {
	if c.owner.blk.gen != c.owner.gen || c.pos >= len(c.deltas) {
		return false
	}
	c.pos++
	if c.pos == len(c.deltas) {
		return false
	}
	c.sum.Forward(c.deltas[c.pos])

	return true
}

func (c *deltaCursor) previous() bool {
	if c.owner.blk.gen != c.owner.gen || c.pos < 0 {
		return false
	}
	if c.pos < len(c.deltas) {
		c.sum.Backward(c.deltas[c.pos])
	}
	c.pos--

	return c.pos >= 0
}

func (c *deltaCursor) reset() {
	c.pos = -1
	c.sum.Reset()
}

// RefCursor walks the node references of a way, keeping a running sum.
type RefCursor struct {
	deltaCursor
}

// Next moves to the next ref.
func (c *RefCursor) Next() bool { return c.next() }

// Previous moves to the previous ref.
func (c *RefCursor) Previous() bool { return c.previous() }

// IsNull reports whether the cursor is not positioned on a ref.
func (c *RefCursor) IsNull() bool { return c.isNull() }

// Reset moves the cursor before the first ref.
func (c *RefCursor) Reset() { c.reset() }

// Index returns the position of the current ref.
func (c *RefCursor) Index() int { return c.pos }

// Current returns the node id of the current ref, or 0 when null.
func (c *RefCursor) Current() int64 {
	if c.isNull() {
		return 0
	}

	return c.sum.Value()
}

// MemberCursor walks the members of a relation, keeping a running sum of
// member ids.
type MemberCursor struct {
	deltaCursor
	rel RelationView
}

// Next moves to the next member.
func (c *MemberCursor) Next() bool { return c.next() }

// Previous moves to the previous member.
func (c *MemberCursor) Previous() bool { return c.previous() }

// IsNull reports whether the cursor is not positioned on a member.
func (c *MemberCursor) IsNull() bool { return c.isNull() }

// Reset moves the cursor before the first member.
func (c *MemberCursor) Reset() { c.reset() }

// Index returns the position of the current member.
func (c *MemberCursor) Index() int { return c.pos }

// Current returns the current member, or a zero Member when null.
func (c *MemberCursor) Current() Member {
	if c.isNull() {
		return Member{}
	}

	return c.rel.member(c.rel.relation(), c.pos, c.sum.Value())
}
