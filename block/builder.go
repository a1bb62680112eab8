package block

import (
	"math"

	"github.com/arloliu/osmpbf/coord"
	"github.com/arloliu/osmpbf/format"
)

// removedID marks a way ref or relation member dropped by a *Later call.
const removedID int64 = math.MinInt64

type recordKind uint8

const (
	recPlain recordKind = iota
	recDense
	recWay
	recRelation
)

// tagSet holds pool ids of a record's tags. A removed tag has key id 0.
type tagSet struct {
	keys []uint32
	vals []uint32
}

type infoRecord struct {
	version    int32
	timestamp  int64
	changeset  int64
	uid        int32
	user       uint32
	visible    bool
	hasVisible bool
}

type nodeRecord struct {
	tagSet
	info     *infoRecord
	id       int64
	lat, lon int64 // nanodegrees
	hasID    bool
	hasCoord bool
}

type wayRecord struct {
	tagSet
	info  *infoRecord
	id    int64
	refs  []int64 // absolute, removedID for dropped slots
	hasID bool
}

type relationRecord struct {
	tagSet
	info   *infoRecord
	id     int64
	memIDs []int64 // absolute, removedID for dropped slots
	types  []format.MemberType
	roles  []uint32
	hasID  bool
}

// handle binds a builder to one record of an Encoder generation.
type handle struct {
	enc   *Encoder
	gen   uint64
	kind  recordKind
	index int
}

const staleBuilder = "block: builder used after Flush or Reset"

func (h handle) check() {
	if h.enc == nil || h.enc.gen != h.gen {
		panic(staleBuilder)
	}
}

func (h handle) fields() (*tagSet, **infoRecord, *int64, *bool) {
	h.check()
	switch h.kind {
	case recPlain:
		r := &h.enc.plain[h.index]
		return &r.tagSet, &r.info, &r.id, &r.hasID
	case recDense:
		r := &h.enc.dense[h.index]
		return &r.tagSet, &r.info, &r.id, &r.hasID
	case recWay:
		r := &h.enc.ways[h.index]
		return &r.tagSet, &r.info, &r.id, &r.hasID
	default:
		r := &h.enc.rels[h.index]
		return &r.tagSet, &r.info, &r.id, &r.hasID
	}
}

func (h handle) tags() *tagSet {
	t, _, _, _ := h.fields()
	return t
}

// SetID sets the primitive id.
func (h handle) SetID(id int64) {
	_, _, p, has := h.fields()
	*p, *has = id, true
}

// AddTag appends a tag and returns its slot index. Tags with an empty key
// take no string references and are dropped at Flush.
func (h handle) AddTag(key, value string) int {
	t := h.tags()
	k := h.enc.pool.Insert(key)
	var v uint32
	if k != 0 {
		v = h.enc.pool.Insert(value)
	}
	t.keys = append(t.keys, k)
	t.vals = append(t.vals, v)

	return len(t.keys) - 1
}

// SetValue replaces the value of tag slot i.
func (h handle) SetValue(i int, value string) {
	t := h.tags()
	if t.keys[i] == 0 {
		return
	}
	id := h.enc.pool.Insert(value)
	h.enc.pool.Remove(t.vals[i])
	t.vals[i] = id
}

// RemoveTagLater releases tag slot i. The slot keeps its index and is
// dropped from the output at Flush.
func (h handle) RemoveTagLater(i int) {
	t := h.tags()
	h.enc.pool.Remove(t.keys[i])
	h.enc.pool.Remove(t.vals[i])
	t.keys[i], t.vals[i] = 0, 0
}

// ClearTags releases every tag.
func (h handle) ClearTags() {
	t := h.tags()
	for i := range t.keys {
		h.enc.pool.Remove(t.keys[i])
		h.enc.pool.Remove(t.vals[i])
	}
	t.keys, t.vals = t.keys[:0], t.vals[:0]
}

// TagCount returns the number of tag slots, including removed ones.
func (h handle) TagCount() int {
	return len(h.tags().keys)
}

// Tag returns tag slot i; ok is false when the slot was removed.
func (h handle) Tag(i int) (key, value string, ok bool) {
	t := h.tags()
	if t.keys[i] == 0 {
		return "", "", false
	}

	return h.enc.pool.Value(t.keys[i]), h.enc.pool.Value(t.vals[i]), true
}

// FindTag returns the slot index of key, or -1.
func (h handle) FindTag(key string) int {
	t := h.tags()
	id := h.enc.pool.ID(key)
	if id == 0 {
		return -1
	}
	for i, k := range t.keys {
		if k == id {
			return i
		}
	}

	return -1
}

// SetInfo sets the primitive metadata. Timestamp is in milliseconds and is
// truncated to the encoder's date granularity at Flush.
func (h handle) SetInfo(info Info) {
	_, slot, _, _ := h.fields()
	user := h.enc.pool.Insert(info.User)
	if *slot != nil {
		h.enc.pool.Remove((*slot).user)
	}
	*slot = &infoRecord{
		version:    info.Version,
		timestamp:  info.Timestamp,
		changeset:  info.Changeset,
		uid:        info.UID,
		user:       user,
		visible:    info.Visible,
		hasVisible: info.HasVisible,
	}
}

// NodeBuilder edits a node accumulated in an Encoder.
type NodeBuilder struct {
	handle
}

// Kind returns the node encoding the node will be written with.
func (b NodeBuilder) Kind() format.NodeKind {
	if b.kind == recDense {
		return format.NodeDense
	}

	return format.NodePlain
}

func (b NodeBuilder) node() *nodeRecord {
	b.check()
	if b.kind == recDense {
		return &b.enc.dense[b.index]
	}

	return &b.enc.plain[b.index]
}

// SetLatLon sets the position in degrees.
func (b NodeBuilder) SetLatLon(lat, lon float64) {
	b.SetLatLonNano(coord.DegreesToNano(lat), coord.DegreesToNano(lon))
}

// SetLatLonNano sets the position in nanodegrees.
func (b NodeBuilder) SetLatLonNano(lat, lon int64) {
	n := b.node()
	n.lat, n.lon, n.hasCoord = lat, lon, true
}

// WayBuilder edits a way accumulated in an Encoder.
type WayBuilder struct {
	handle
}

func (b WayBuilder) way() *wayRecord {
	b.check()
	return &b.enc.ways[b.index]
}

// AddRef appends a node reference and returns its index.
func (b WayBuilder) AddRef(id int64) int {
	w := b.way()
	w.refs = append(w.refs, id)

	return len(w.refs) - 1
}

// SetRef replaces node reference i.
func (b WayBuilder) SetRef(i int, id int64) {
	b.way().refs[i] = id
}

// RemoveRefLater drops node reference i at Flush. Indices of other refs do
// not change until then.
func (b WayBuilder) RemoveRefLater(i int) {
	b.way().refs[i] = removedID
}

// RefCount returns the number of ref slots, including removed ones.
func (b WayBuilder) RefCount() int {
	return len(b.way().refs)
}

// RelationBuilder edits a relation accumulated in an Encoder.
type RelationBuilder struct {
	handle
}

func (b RelationBuilder) relation() *relationRecord {
	b.check()
	return &b.enc.rels[b.index]
}

// AddMember appends a member and returns its index.
func (b RelationBuilder) AddMember(id int64, t format.MemberType, role string) int {
	r := b.relation()
	r.memIDs = append(r.memIDs, id)
	r.types = append(r.types, t)
	r.roles = append(r.roles, b.enc.pool.Insert(role))

	return len(r.memIDs) - 1
}

// RemoveMemberLater drops member i at Flush and releases its role.
func (b RelationBuilder) RemoveMemberLater(i int) {
	r := b.relation()
	if r.memIDs[i] == removedID {
		return
	}
	b.enc.pool.Remove(r.roles[i])
	r.memIDs[i], r.roles[i] = removedID, 0
}

// MemberCount returns the number of member slots, including removed ones.
func (b RelationBuilder) MemberCount() int {
	return len(b.relation().memIDs)
}
