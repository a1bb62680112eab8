package block

import (
	"iter"
	"time"

	"github.com/arloliu/osmpbf/coord"
	"github.com/arloliu/osmpbf/encoding"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/schema"
)

// Primitive is a decoded node, way or relation. The set of implementations
// is closed: NodeView, WayView and RelationView.
type Primitive interface {
	// Type returns the primitive kind.
	Type() format.PrimitiveKind
	ID() int64
	TagCount() int
	KeyID(i int) uint32
	ValueID(i int) uint32
	Key(i int) string
	Value(i int) string
	Tags() iter.Seq2[string, string]
	FindTag(key string) (string, bool)
	Info() (Info, bool)
	Source() (*Block, uint64)
	Valid() bool

	primitive()
}

var (
	_ Primitive = NodeView{}
	_ Primitive = WayView{}
	_ Primitive = RelationView{}
)

// Info is the optional metadata of a primitive.
type Info struct {
	// Version is -1 when unknown.
	Version int32
	// Timestamp is in milliseconds since the Unix epoch.
	Timestamp int64
	Changeset int64
	UID       int32
	User      string
	Visible   bool
	// HasVisible reports whether Visible was recorded.
	HasVisible bool
}

// Time returns Timestamp as a UTC time.
func (i Info) Time() time.Time {
	return time.UnixMilli(i.Timestamp).UTC()
}

// Member is one relation member.
type Member struct {
	ID     int64
	Type   format.MemberType
	RoleID uint32
	Role   string
}

// view is the borrowed reference shared by all views.
type view struct {
	blk   *Block
	gen   uint64
	ref   int32
	index int32
}

const staleView = "block: view used after its block was re-parsed or reset"

func (v view) check() {
	if v.blk == nil || v.blk.gen != v.gen {
		panic(staleView)
	}
}

// Valid reports whether the view still refers to live block data.
func (v view) Valid() bool {
	return v.blk != nil && v.blk.gen == v.gen && !v.blk.null
}

// Source returns the owning block and the generation the view belongs to.
// Together they identify the decoded block instance, so callers caching
// per-block data can detect a re-parse.
func (v view) Source() (*Block, uint64) {
	return v.blk, v.gen
}

// tagList abstracts the two tag layouts: parallel keys/vals arrays and the
// interleaved dense keys_vals column.
type tagList struct {
	keys []uint32
	vals []uint32
	kv   []int32
}

func (t tagList) len() int {
	if t.kv != nil {
		return len(t.kv) / 2
	}

	return len(t.keys)
}

func (t tagList) keyID(i int) uint32 {
	if t.kv != nil {
		return uint32(t.kv[2*i]) //nolint:gosec
	}

	return t.keys[i]
}

func (t tagList) valueID(i int) uint32 {
	if t.kv != nil {
		return uint32(t.kv[2*i+1]) //nolint:gosec
	}

	return t.vals[i]
}

func (t tagList) all(blk *Block) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i := 0; i < t.len(); i++ {
			if !yield(blk.strings.String(t.keyID(i)), blk.strings.String(t.valueID(i))) {
				return
			}
		}
	}
}

func (t tagList) find(blk *Block, key string) (string, bool) {
	for i := 0; i < t.len(); i++ {
		if string(blk.strings.Bytes(t.keyID(i))) == key {
			return blk.strings.String(t.valueID(i)), true
		}
	}

	return "", false
}

func convertInfo(blk *Block, in *schema.Info) Info {
	return Info{
		Version:    in.Version,
		Timestamp:  in.Timestamp * int64(blk.pb.DateGranularity),
		Changeset:  in.Changeset,
		UID:        in.UID,
		User:       blk.strings.String(in.UserSID),
		Visible:    in.Visible,
		HasVisible: in.HasVisible,
	}
}

// NodeView is a node of either encoding. Coordinates are captured when the
// view is created; tags and metadata are read from the block on demand.
type NodeView struct {
	view
	kind format.NodeKind
	id   int64
	lat  int64
	lon  int64
}

func (NodeView) primitive() {}

// Type returns format.KindNode.
func (v NodeView) Type() format.PrimitiveKind { return format.KindNode }

// Kind returns the node encoding, format.NodePlain or format.NodeDense.
func (v NodeView) Kind() format.NodeKind { return v.kind }

// ID returns the node id.
func (v NodeView) ID() int64 {
	v.check()
	return v.id
}

// RawLat returns the stored latitude before scaling.
func (v NodeView) RawLat() int64 {
	v.check()
	return v.lat
}

// RawLon returns the stored longitude before scaling.
func (v NodeView) RawLon() int64 {
	v.check()
	return v.lon
}

func (v NodeView) transform() coord.Transform {
	v.check()
	return v.blk.transform
}

// LatNano returns the latitude in nanodegrees.
func (v NodeView) LatNano() int64 { return v.transform().LatNano(v.lat) }

// LonNano returns the longitude in nanodegrees.
func (v NodeView) LonNano() int64 { return v.transform().LonNano(v.lon) }

// Lat returns the latitude in degrees.
func (v NodeView) Lat() float64 { return v.transform().Lat(v.lat) }

// Lon returns the longitude in degrees.
func (v NodeView) Lon() float64 { return v.transform().Lon(v.lon) }

func (v NodeView) tags() tagList {
	v.check()
	if v.kind == format.NodeDense {
		return tagList{kv: v.blk.denseTags(int(v.ref), int(v.index))}
	}
	n := v.blk.plainNode(int(v.ref), int(v.index))

	return tagList{keys: n.Keys, vals: n.Vals}
}

// TagCount returns the number of tags.
func (v NodeView) TagCount() int { return v.tags().len() }

// KeyID returns the string table id of the i-th key.
func (v NodeView) KeyID(i int) uint32 { return v.tags().keyID(i) }

// ValueID returns the string table id of the i-th value.
func (v NodeView) ValueID(i int) uint32 { return v.tags().valueID(i) }

// Key returns the i-th key.
func (v NodeView) Key(i int) string { return v.blk.strings.String(v.KeyID(i)) }

// Value returns the i-th value.
func (v NodeView) Value(i int) string { return v.blk.strings.String(v.ValueID(i)) }

// Tags returns an iterator over key/value pairs in stored order.
func (v NodeView) Tags() iter.Seq2[string, string] { return v.tags().all(v.blk) }

// FindTag returns the value of key.
func (v NodeView) FindTag(key string) (string, bool) { return v.tags().find(v.blk, key) }

// Info returns the node metadata, if recorded.
func (v NodeView) Info() (Info, bool) {
	v.check()
	if v.kind == format.NodePlain {
		n := v.blk.plainNode(int(v.ref), int(v.index))
		if n.Info == nil {
			return Info{}, false
		}

		return convertInfo(v.blk, n.Info), true
	}

	d := v.blk.denseCols(int(v.ref)).Info
	if d == nil {
		return Info{}, false
	}

	i := int(v.index)
	info := Info{Version: -1}
	if len(d.Version) > 0 {
		info.Version = d.Version[i]
	}
	if len(d.Timestamp) > 0 {
		info.Timestamp = d.Timestamp[i] * int64(v.blk.pb.DateGranularity)
	}
	if len(d.Changeset) > 0 {
		info.Changeset = d.Changeset[i]
	}
	if len(d.UID) > 0 {
		info.UID = d.UID[i]
	}
	if len(d.UserSID) > 0 {
		info.User = v.blk.strings.String(uint32(d.UserSID[i])) //nolint:gosec
	}
	if len(d.Visible) > 0 {
		info.Visible, info.HasVisible = d.Visible[i], true
	}

	return info, true
}

// WayView is a way.
type WayView struct {
	view
}

func (WayView) primitive() {}

// Type returns format.KindWay.
func (v WayView) Type() format.PrimitiveKind { return format.KindWay }

func (v WayView) way() *schema.Way {
	v.check()
	return v.blk.way(int(v.ref), int(v.index))
}

// ID returns the way id.
func (v WayView) ID() int64 { return v.way().ID }

func (v WayView) tags() tagList {
	w := v.way()
	return tagList{keys: w.Keys, vals: w.Vals}
}

// TagCount returns the number of tags.
func (v WayView) TagCount() int { return v.tags().len() }

// KeyID returns the string table id of the i-th key.
func (v WayView) KeyID(i int) uint32 { return v.tags().keyID(i) }

// ValueID returns the string table id of the i-th value.
func (v WayView) ValueID(i int) uint32 { return v.tags().valueID(i) }

// Key returns the i-th key.
func (v WayView) Key(i int) string { return v.blk.strings.String(v.KeyID(i)) }

// Value returns the i-th value.
func (v WayView) Value(i int) string { return v.blk.strings.String(v.ValueID(i)) }

// Tags returns an iterator over key/value pairs in stored order.
func (v WayView) Tags() iter.Seq2[string, string] { return v.tags().all(v.blk) }

// FindTag returns the value of key.
func (v WayView) FindTag(key string) (string, bool) { return v.tags().find(v.blk, key) }

// Info returns the way metadata, if recorded.
func (v WayView) Info() (Info, bool) {
	w := v.way()
	if w.Info == nil {
		return Info{}, false
	}

	return convertInfo(v.blk, w.Info), true
}

// RefCount returns the number of node references.
func (v WayView) RefCount() int { return len(v.way().Refs) }

// Ref returns the i-th node reference.
//
// Refs are delta coded, so this re-sums from the first ref on every call and
// costs O(i). Do not use it in loops; use Refs or AppendRefs instead.
func (v WayView) Ref(i int) int64 {
	return encoding.At(v.way().Refs, i)
}

// AppendRefs appends all node references to dst.
func (v WayView) AppendRefs(dst []int64) []int64 {
	return encoding.Decode(dst, v.way().Refs)
}

// Refs returns a cursor over the node references.
func (v WayView) Refs() *RefCursor {
	return &RefCursor{deltaCursor{owner: v.view, deltas: v.way().Refs, pos: -1}}
}

// RelationView is a relation.
type RelationView struct {
	view
}

func (RelationView) primitive() {}

// Type returns format.KindRelation.
func (v RelationView) Type() format.PrimitiveKind { return format.KindRelation }

func (v RelationView) relation() *schema.Relation {
	v.check()
	return v.blk.relation(int(v.ref), int(v.index))
}

// ID returns the relation id.
func (v RelationView) ID() int64 { return v.relation().ID }

func (v RelationView) tags() tagList {
	r := v.relation()
	return tagList{keys: r.Keys, vals: r.Vals}
}

// TagCount returns the number of tags.
func (v RelationView) TagCount() int { return v.tags().len() }

// KeyID returns the string table id of the i-th key.
func (v RelationView) KeyID(i int) uint32 { return v.tags().keyID(i) }

// ValueID returns the string table id of the i-th value.
func (v RelationView) ValueID(i int) uint32 { return v.tags().valueID(i) }

// Key returns the i-th key.
func (v RelationView) Key(i int) string { return v.blk.strings.String(v.KeyID(i)) }

// Value returns the i-th value.
func (v RelationView) Value(i int) string { return v.blk.strings.String(v.ValueID(i)) }

// Tags returns an iterator over key/value pairs in stored order.
func (v RelationView) Tags() iter.Seq2[string, string] { return v.tags().all(v.blk) }

// FindTag returns the value of key.
func (v RelationView) FindTag(key string) (string, bool) { return v.tags().find(v.blk, key) }

// Info returns the relation metadata, if recorded.
func (v RelationView) Info() (Info, bool) {
	r := v.relation()
	if r.Info == nil {
		return Info{}, false
	}

	return convertInfo(v.blk, r.Info), true
}

// MemberCount returns the number of members.
func (v RelationView) MemberCount() int { return len(v.relation().MemIDs) }

// Member returns the i-th member. Member ids are delta coded, so this costs
// O(i); use Members for iteration.
func (v RelationView) Member(i int) Member {
	r := v.relation()
	return v.member(r, i, encoding.At(r.MemIDs, i))
}

func (v RelationView) member(r *schema.Relation, i int, id int64) Member {
	role := uint32(r.RolesSID[i]) //nolint:gosec
	return Member{
		ID:     id,
		Type:   r.Types[i],
		RoleID: role,
		Role:   v.blk.strings.String(role),
	}
}

// Members returns a cursor over the members.
func (v RelationView) Members() *MemberCursor {
	return &MemberCursor{deltaCursor: deltaCursor{owner: v.view, deltas: v.relation().MemIDs, pos: -1}, rel: v}
}
