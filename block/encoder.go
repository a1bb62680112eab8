package block

import (
	"fmt"
	"slices"

	"github.com/arloliu/osmpbf/coord"
	"github.com/arloliu/osmpbf/encoding"
	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/internal/options"
	"github.com/arloliu/osmpbf/schema"
	"github.com/arloliu/osmpbf/stringtable"
)

// Encoder accumulates primitives and serializes them into one
// PrimitiveBlock payload.
//
// Builders returned by the Create and Append methods stay valid until the
// next Flush or Reset; using one afterwards panics. Encoder is not safe for
// concurrent use.
type Encoder struct {
	cfg       *EncoderConfig
	transform coord.Transform
	pool      *stringtable.Pool
	gen       uint64

	plain []nodeRecord
	dense []nodeRecord
	ways  []wayRecord
	rels  []relationRecord
}

// NewEncoder creates an empty Encoder.
//
// Parameters:
//   - opts: WithGranularity, WithOffsets and WithDateGranularity
//
// Returns:
//   - *Encoder: encoder ready to accept primitives
//   - error: option error
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := defaultEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{
		cfg: cfg,
		transform: coord.Transform{
			Granularity: cfg.granularity,
			LatOffset:   cfg.latOffset,
			LonOffset:   cfg.lonOffset,
		},
		pool: stringtable.NewPool(),
	}, nil
}

// Transform returns the coordinate transform used for written nodes.
func (e *Encoder) Transform() coord.Transform {
	return e.transform
}

// Len returns the number of accumulated primitives.
func (e *Encoder) Len() int {
	return len(e.plain) + len(e.dense) + len(e.ways) + len(e.rels)
}

// Strings returns the number of distinct strings currently referenced.
func (e *Encoder) Strings() int {
	return e.pool.Len()
}

// CreateNode starts a node. NodePlain selects the plain encoding; any kind
// containing NodeDense selects the dense one.
//
// Parameters:
//   - kind: node encoding to write the node with
//
// Returns:
//   - NodeBuilder: builder valid until the next Flush or Reset
func (e *Encoder) CreateNode(kind format.NodeKind) NodeBuilder {
	if kind.Has(format.NodeDense) {
		e.dense = append(e.dense, nodeRecord{})
		return NodeBuilder{handle{enc: e, gen: e.gen, kind: recDense, index: len(e.dense) - 1}}
	}
	e.plain = append(e.plain, nodeRecord{})

	return NodeBuilder{handle{enc: e, gen: e.gen, kind: recPlain, index: len(e.plain) - 1}}
}

// CreateWay starts a way.
func (e *Encoder) CreateWay() WayBuilder {
	e.ways = append(e.ways, wayRecord{})
	return WayBuilder{handle{enc: e, gen: e.gen, kind: recWay, index: len(e.ways) - 1}}
}

// CreateRelation starts a relation.
func (e *Encoder) CreateRelation() RelationBuilder {
	e.rels = append(e.rels, relationRecord{})
	return RelationBuilder{handle{enc: e, gen: e.gen, kind: recRelation, index: len(e.rels) - 1}}
}

// AppendNode copies a decoded node, keeping its encoding.
func (e *Encoder) AppendNode(v NodeView) NodeBuilder {
	return e.AppendNodeAs(v, v.Kind())
}

// AppendNodeAs copies a decoded node into the given encoding.
//
// Tags, info and the user name are interned into the encoder's pool, so the
// result does not reference the source block.
//
// Parameters:
//   - v: node view from any block
//   - kind: target encoding, chosen as in CreateNode
//
// Returns:
//   - NodeBuilder: builder for the copy, open to further edits
func (e *Encoder) AppendNodeAs(v NodeView, kind format.NodeKind) NodeBuilder {
	b := e.CreateNode(kind)
	b.SetID(v.ID())
	b.SetLatLonNano(v.LatNano(), v.LonNano())
	copyCommon(b.handle, v)

	return b
}

// AppendWay copies a decoded way.
func (e *Encoder) AppendWay(v WayView) WayBuilder {
	b := e.CreateWay()
	b.SetID(v.ID())
	w := b.way()
	w.refs = v.AppendRefs(w.refs)
	copyCommon(b.handle, v)

	return b
}

// AppendRelation copies a decoded relation.
func (e *Encoder) AppendRelation(v RelationView) RelationBuilder {
	b := e.CreateRelation()
	b.SetID(v.ID())
	for c := v.Members(); c.Next(); {
		m := c.Current()
		b.AddMember(m.ID, m.Type, m.Role)
	}
	copyCommon(b.handle, v)

	return b
}

// Append copies any decoded primitive, keeping the node encoding.
func (e *Encoder) Append(p Primitive) {
	switch v := p.(type) {
	case NodeView:
		e.AppendNode(v)
	case WayView:
		e.AppendWay(v)
	case RelationView:
		e.AppendRelation(v)
	}
}

func copyCommon(h handle, p Primitive) {
	for k, v := range p.Tags() {
		h.AddTag(k, v)
	}
	if info, ok := p.Info(); ok {
		h.SetInfo(info)
	}
}

// Reset drops every accumulated primitive and invalidates outstanding
// builders.
func (e *Encoder) Reset() {
	e.pool.Reset()
	e.plain = e.plain[:0]
	e.dense = e.dense[:0]
	e.ways = e.ways[:0]
	e.rels = e.rels[:0]
	e.gen++
}

// Flush serializes the accumulated primitives, appends the PrimitiveBlock
// payload to dst and resets the encoder.
//
// Groups are written in the order plain nodes, dense nodes, ways,
// relations, skipping empty ones. Removed tags, refs and members are
// dropped and the string table is renumbered contiguously.
//
// On error nothing is appended and the accumulated primitives are kept.
//
// Returns:
//   - []byte: dst with the payload appended
//   - error: ErrIncompleteRecord or ErrCoordinateOutOfRange
func (e *Encoder) Flush(dst []byte) ([]byte, error) {
	if err := e.validate(); err != nil {
		return dst, err
	}

	table, remap := e.pool.Compact()
	pb := schema.PrimitiveBlock{
		Strings:         table,
		Granularity:     e.cfg.granularity,
		DateGranularity: e.cfg.dateGranularity,
		LatOffset:       e.cfg.latOffset,
		LonOffset:       e.cfg.lonOffset,
	}

	if len(e.plain) > 0 {
		pb.Groups = append(pb.Groups, schema.PrimitiveGroup{Nodes: e.plainNodes(remap)})
	}
	if len(e.dense) > 0 {
		pb.Groups = append(pb.Groups, schema.PrimitiveGroup{Dense: e.denseNodes(remap)})
	}
	if len(e.ways) > 0 {
		pb.Groups = append(pb.Groups, schema.PrimitiveGroup{Ways: e.wayMessages(remap)})
	}
	if len(e.rels) > 0 {
		pb.Groups = append(pb.Groups, schema.PrimitiveGroup{Relations: e.relationMessages(remap)})
	}

	dst = slices.Grow(dst, pb.Size())
	dst = pb.AppendTo(dst)
	e.Reset()

	return dst, nil
}

func (e *Encoder) validate() error {
	for _, nodes := range [...]struct {
		name string
		recs []nodeRecord
	}{{"plain node", e.plain}, {"dense node", e.dense}} {
		for i := range nodes.recs {
			n := &nodes.recs[i]
			switch {
			case !n.hasID:
				return fmt.Errorf("%w: %s %d has no id", errs.ErrIncompleteRecord, nodes.name, i)
			case !n.hasCoord:
				return fmt.Errorf("%w: %s %d has no coordinates", errs.ErrIncompleteRecord, nodes.name, n.id)
			case !coord.ValidNano(n.lat, n.lon):
				return fmt.Errorf("%w: %s %d at (%d, %d) nanodegrees",
					errs.ErrCoordinateOutOfRange, nodes.name, n.id, n.lat, n.lon)
			}
		}
	}
	for i := range e.ways {
		if !e.ways[i].hasID {
			return fmt.Errorf("%w: way %d has no id", errs.ErrIncompleteRecord, i)
		}
	}
	for i := range e.rels {
		if !e.rels[i].hasID {
			return fmt.Errorf("%w: relation %d has no id", errs.ErrIncompleteRecord, i)
		}
	}

	return nil
}

// liveTags returns the remapped ids of the tags with a non-empty key.
func (t *tagSet) liveTags(remap []uint32) (keys, vals []uint32) {
	for i, k := range t.keys {
		if k == 0 {
			continue
		}
		keys = append(keys, remap[k])
		vals = append(vals, remap[t.vals[i]])
	}

	return keys, vals
}

func (e *Encoder) info(in *infoRecord, remap []uint32) *schema.Info {
	if in == nil {
		return nil
	}

	return &schema.Info{
		Version:    in.version,
		Timestamp:  in.timestamp / int64(e.cfg.dateGranularity),
		Changeset:  in.changeset,
		UID:        in.uid,
		UserSID:    remap[in.user],
		Visible:    in.visible,
		HasVisible: in.hasVisible,
	}
}

func (e *Encoder) plainNodes(remap []uint32) []schema.Node {
	out := make([]schema.Node, len(e.plain))
	for i := range e.plain {
		n := &e.plain[i]
		keys, vals := n.liveTags(remap)
		out[i] = schema.Node{
			ID:   n.id,
			Keys: keys,
			Vals: vals,
			Info: e.info(n.info, remap),
			Lat:  e.transform.RawLat(n.lat),
			Lon:  e.transform.RawLon(n.lon),
		}
	}

	return out
}

func (e *Encoder) denseNodes(remap []uint32) *schema.DenseNodes {
	n := len(e.dense)
	ids := encoding.NewDeltaEncoder[int64](n)
	lats := encoding.NewDeltaEncoder[int64](n)
	lons := encoding.NewDeltaEncoder[int64](n)

	var kv []int32
	tagged, withInfo := false, false
	for i := range e.dense {
		rec := &e.dense[i]
		ids.Write(rec.id)
		lats.Write(e.transform.RawLat(rec.lat))
		lons.Write(e.transform.RawLon(rec.lon))

		if rec.info != nil {
			withInfo = true
		}
		keys, vals := rec.liveTags(remap)
		if len(keys) > 0 {
			tagged = true
		}
		for j := range keys {
			kv = append(kv, int32(keys[j]), int32(vals[j])) //nolint:gosec
		}
		kv = append(kv, 0)
	}

	dn := &schema.DenseNodes{ID: ids.Values(), Lat: lats.Values(), Lon: lons.Values()}
	if tagged {
		dn.KeysVals = kv
	}
	if withInfo {
		dn.Info = e.denseInfo(remap)
	}

	return dn
}

// denseInfo builds delta coded metadata columns. Nodes without metadata get
// version -1 and zero values elsewhere.
func (e *Encoder) denseInfo(remap []uint32) *schema.DenseInfo {
	n := len(e.dense)
	di := &schema.DenseInfo{
		Version:   make([]int32, n),
		Timestamp: make([]int64, n),
		Changeset: make([]int64, n),
		UID:       make([]int32, n),
		UserSID:   make([]int32, n),
	}

	hasVisible := false
	for i := range e.dense {
		in := e.dense[i].info
		if in == nil {
			di.Version[i] = -1
			continue
		}
		di.Version[i] = in.version
		di.Timestamp[i] = in.timestamp / int64(e.cfg.dateGranularity)
		di.Changeset[i] = in.changeset
		di.UID[i] = in.uid
		di.UserSID[i] = int32(remap[in.user]) //nolint:gosec
		hasVisible = hasVisible || in.hasVisible
	}
	if hasVisible {
		di.Visible = make([]bool, n)
		for i := range e.dense {
			in := e.dense[i].info
			di.Visible[i] = in == nil || !in.hasVisible || in.visible
		}
	}

	encoding.EncodeInPlace(di.Timestamp)
	encoding.EncodeInPlace(di.Changeset)
	encoding.EncodeInPlace(di.UID)
	encoding.EncodeInPlace(di.UserSID)

	return di
}

func (e *Encoder) wayMessages(remap []uint32) []schema.Way {
	out := make([]schema.Way, len(e.ways))
	for i := range e.ways {
		w := &e.ways[i]
		refs := make([]int64, 0, len(w.refs))
		for _, r := range w.refs {
			if r != removedID {
				refs = append(refs, r)
			}
		}
		encoding.EncodeInPlace(refs)

		keys, vals := w.liveTags(remap)
		out[i] = schema.Way{ID: w.id, Keys: keys, Vals: vals, Info: e.info(w.info, remap), Refs: refs}
	}

	return out
}

func (e *Encoder) relationMessages(remap []uint32) []schema.Relation {
	out := make([]schema.Relation, len(e.rels))
	for i := range e.rels {
		r := &e.rels[i]
		msg := schema.Relation{
			ID:       r.id,
			Info:     e.info(r.info, remap),
			RolesSID: make([]int32, 0, len(r.memIDs)),
			MemIDs:   make([]int64, 0, len(r.memIDs)),
			Types:    make([]format.MemberType, 0, len(r.memIDs)),
		}
		for j, id := range r.memIDs {
			if id == removedID {
				continue
			}
			msg.MemIDs = append(msg.MemIDs, id)
			msg.Types = append(msg.Types, r.types[j])
			msg.RolesSID = append(msg.RolesSID, int32(remap[r.roles[j]])) //nolint:gosec
		}
		encoding.EncodeInPlace(msg.MemIDs)
		msg.Keys, msg.Vals = r.liveTags(remap)
		out[i] = msg
	}

	return out
}
