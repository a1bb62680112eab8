package schema

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/osmpbf/format"
)

// Field numbers shared by Node, Way and Relation.
const (
	elemID   protowire.Number = 1
	elemKeys protowire.Number = 2
	elemVals protowire.Number = 3
	elemInfo protowire.Number = 4
)

const (
	nodeLat protowire.Number = 8
	nodeLon protowire.Number = 9

	wayRefs protowire.Number = 8

	relRoles  protowire.Number = 8
	relMemIDs protowire.Number = 9
	relTypes  protowire.Number = 10

	denseID       protowire.Number = 1
	denseInfo     protowire.Number = 5
	denseLat      protowire.Number = 8
	denseLon      protowire.Number = 9
	denseKeysVals protowire.Number = 10

	infoVersion   protowire.Number = 1
	infoTimestamp protowire.Number = 2
	infoChangeset protowire.Number = 3
	infoUID       protowire.Number = 4
	infoUserSID   protowire.Number = 5
	infoVisible   protowire.Number = 6
)

// Info is the optional metadata attached to a plain node, way or relation.
type Info struct {
	// Version is -1 when the field is absent.
	Version   int32
	Timestamp int64
	Changeset int64
	UID       int32
	UserSID   uint32
	Visible   bool
	// HasVisible reports whether the visible flag was present.
	HasVisible bool
}

// Unmarshal parses an Info message.
func (in *Info) Unmarshal(b []byte) error {
	const msg = "Info"

	*in = Info{Version: -1}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		if typ != protowire.VarintType || num < infoVersion || num > infoVisible {
			m, err := skipField(msg, num, typ, b)
			if err != nil {
				return err
			}
			b = b[m:]

			continue
		}

		v, n, err := consumeVarint(msg, num, b)
		if err != nil {
			return err
		}
		switch num {
		case infoVersion:
			in.Version = int32(v) //nolint:gosec
		case infoTimestamp:
			in.Timestamp = int64(v) //nolint:gosec
		case infoChangeset:
			in.Changeset = int64(v) //nolint:gosec
		case infoUID:
			in.UID = int32(v) //nolint:gosec
		case infoUserSID:
			in.UserSID = uint32(v) //nolint:gosec
		case infoVisible:
			in.Visible = v != 0
			in.HasVisible = true
		}
		b = b[n:]
	}

	return nil
}

// Size returns the encoded size of in.
func (in *Info) Size() int {
	size := 0
	if in.Version != -1 {
		size += sizeVarintField(infoVersion, int32Varint(in.Version))
	}
	if in.Timestamp != 0 {
		size += sizeVarintField(infoTimestamp, uint64(in.Timestamp)) //nolint:gosec
	}
	if in.Changeset != 0 {
		size += sizeVarintField(infoChangeset, uint64(in.Changeset)) //nolint:gosec
	}
	if in.UID != 0 {
		size += sizeVarintField(infoUID, int32Varint(in.UID))
	}
	if in.UserSID != 0 {
		size += sizeVarintField(infoUserSID, uint64(in.UserSID))
	}
	if in.HasVisible {
		size += sizeVarintField(infoVisible, 1)
	}

	return size
}

// AppendTo appends the encoded Info to b.
func (in *Info) AppendTo(b []byte) []byte {
	if in.Version != -1 {
		b = appendVarintField(b, infoVersion, int32Varint(in.Version))
	}
	if in.Timestamp != 0 {
		b = appendVarintField(b, infoTimestamp, uint64(in.Timestamp)) //nolint:gosec
	}
	if in.Changeset != 0 {
		b = appendVarintField(b, infoChangeset, uint64(in.Changeset)) //nolint:gosec
	}
	if in.UID != 0 {
		b = appendVarintField(b, infoUID, int32Varint(in.UID))
	}
	if in.UserSID != 0 {
		b = appendVarintField(b, infoUserSID, uint64(in.UserSID))
	}
	if in.HasVisible {
		b = appendVarintField(b, infoVisible, protowire.EncodeBool(in.Visible))
	}

	return b
}

func sizeInfo(in *Info) int {
	if in == nil {
		return 0
	}

	return sizeBytesField(elemInfo, in.Size())
}

func appendInfo(b []byte, in *Info) []byte {
	if in == nil {
		return b
	}
	b = appendMessageHeader(b, elemInfo, in.Size())

	return in.AppendTo(b)
}

func consumeInfo(msg string, b []byte, dst **Info) (int, error) {
	v, n, err := consumeBytes(msg, elemInfo, b)
	if err != nil {
		return 0, err
	}
	if *dst == nil {
		*dst = &Info{}
	}

	return n, (*dst).Unmarshal(v)
}

// DenseInfo holds Info columns for a dense node group. Timestamp, Changeset,
// UID and UserSID are delta coded on the wire; Version is not.
type DenseInfo struct {
	Version   []int32
	Timestamp []int64
	Changeset []int64
	UID       []int32
	UserSID   []int32
	Visible   []bool
}

// Unmarshal parses a DenseInfo message, reusing slice capacity.
func (di *DenseInfo) Unmarshal(b []byte) error {
	const msg = "DenseInfo"

	di.Version = di.Version[:0]
	di.Timestamp = di.Timestamp[:0]
	di.Changeset = di.Changeset[:0]
	di.UID = di.UID[:0]
	di.UserSID = di.UserSID[:0]
	di.Visible = di.Visible[:0]

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		switch num {
		case infoVersion:
			n, err = consumeInt32s(msg, num, typ, b, &di.Version)
		case infoTimestamp:
			n, err = consumeSint64s(msg, num, typ, b, &di.Timestamp)
		case infoChangeset:
			n, err = consumeSint64s(msg, num, typ, b, &di.Changeset)
		case infoUID:
			n, err = consumeSint32s(msg, num, typ, b, &di.UID)
		case infoUserSID:
			n, err = consumeSint32s(msg, num, typ, b, &di.UserSID)
		case infoVisible:
			n, err = consumeBools(msg, num, typ, b, &di.Visible)
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	return nil
}

func (di *DenseInfo) fields() [6]packed {
	return [6]packed{
		newPacked(infoVersion, len(di.Version), func(i int) uint64 { return int32Varint(di.Version[i]) }),
		newPacked(infoTimestamp, len(di.Timestamp), func(i int) uint64 { return zigzag64(di.Timestamp[i]) }),
		newPacked(infoChangeset, len(di.Changeset), func(i int) uint64 { return zigzag64(di.Changeset[i]) }),
		newPacked(infoUID, len(di.UID), func(i int) uint64 { return zigzag32(di.UID[i]) }),
		newPacked(infoUserSID, len(di.UserSID), func(i int) uint64 { return zigzag32(di.UserSID[i]) }),
		newPacked(infoVisible, len(di.Visible), func(i int) uint64 { return protowire.EncodeBool(di.Visible[i]) }),
	}
}

// Size returns the encoded size of di.
func (di *DenseInfo) Size() int {
	size := 0
	for _, p := range di.fields() {
		size += p.size()
	}

	return size
}

// AppendTo appends the encoded DenseInfo to b. Values are written as stored.
func (di *DenseInfo) AppendTo(b []byte) []byte {
	for _, p := range di.fields() {
		b = p.appendTo(b)
	}

	return b
}

// Node is a plain, individually encoded node.
type Node struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Info *Info
	// Lat and Lon are raw coordinates, scaled by the block granularity.
	Lat int64
	Lon int64
}

// Unmarshal parses a Node. id, lat and lon are required.
func (nd *Node) Unmarshal(b []byte) error {
	const msg = "Node"

	*nd = Node{Keys: nd.Keys[:0], Vals: nd.Vals[:0]}
	var hasID, hasLat, hasLon bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var (
			err error
			v   uint64
		)
		switch {
		case num == elemID && typ == protowire.VarintType:
			v, n, err = consumeVarint(msg, num, b)
			nd.ID, hasID = protowire.DecodeZigZag(v), true
		case num == elemKeys:
			n, err = consumeUint32s(msg, num, typ, b, &nd.Keys)
		case num == elemVals:
			n, err = consumeUint32s(msg, num, typ, b, &nd.Vals)
		case num == elemInfo && typ == protowire.BytesType:
			n, err = consumeInfo(msg, b, &nd.Info)
		case num == nodeLat && typ == protowire.VarintType:
			v, n, err = consumeVarint(msg, num, b)
			nd.Lat, hasLat = protowire.DecodeZigZag(v), true
		case num == nodeLon && typ == protowire.VarintType:
			v, n, err = consumeVarint(msg, num, b)
			nd.Lon, hasLon = protowire.DecodeZigZag(v), true
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	switch {
	case !hasID:
		return missing(msg, "id")
	case !hasLat:
		return missing(msg, "lat")
	case !hasLon:
		return missing(msg, "lon")
	}

	return nil
}

func (nd *Node) tags() (packed, packed) {
	return uint32Packed(elemKeys, nd.Keys), uint32Packed(elemVals, nd.Vals)
}

// Size returns the encoded size of nd.
func (nd *Node) Size() int {
	keys, vals := nd.tags()

	return sizeVarintField(elemID, zigzag64(nd.ID)) + keys.size() + vals.size() + sizeInfo(nd.Info) +
		sizeVarintField(nodeLat, zigzag64(nd.Lat)) + sizeVarintField(nodeLon, zigzag64(nd.Lon))
}

// AppendTo appends the encoded Node to b.
func (nd *Node) AppendTo(b []byte) []byte {
	keys, vals := nd.tags()

	b = appendVarintField(b, elemID, zigzag64(nd.ID))
	b = keys.appendTo(b)
	b = vals.appendTo(b)
	b = appendInfo(b, nd.Info)
	b = appendVarintField(b, nodeLat, zigzag64(nd.Lat))

	return appendVarintField(b, nodeLon, zigzag64(nd.Lon))
}

// DenseNodes holds every node of a dense group as parallel columns.
//
// ID, Lat and Lon are delta coded on the wire. KeysVals is a flat list of
// key/value string ids where each node's pairs end with a 0; it is empty when
// no node in the group has tags.
type DenseNodes struct {
	ID       []int64
	Lat      []int64
	Lon      []int64
	KeysVals []int32
	Info     *DenseInfo
}

// Unmarshal parses a DenseNodes message, reusing slice capacity.
func (dn *DenseNodes) Unmarshal(b []byte) error {
	const msg = "DenseNodes"

	dn.ID = dn.ID[:0]
	dn.Lat = dn.Lat[:0]
	dn.Lon = dn.Lon[:0]
	dn.KeysVals = dn.KeysVals[:0]
	info := dn.Info
	dn.Info = nil

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		switch {
		case num == denseID:
			n, err = consumeSint64s(msg, num, typ, b, &dn.ID)
		case num == denseLat:
			n, err = consumeSint64s(msg, num, typ, b, &dn.Lat)
		case num == denseLon:
			n, err = consumeSint64s(msg, num, typ, b, &dn.Lon)
		case num == denseKeysVals:
			n, err = consumeInt32s(msg, num, typ, b, &dn.KeysVals)
		case num == denseInfo && typ == protowire.BytesType:
			var v []byte
			v, n, err = consumeBytes(msg, num, b)
			if err == nil {
				if info == nil {
					info = &DenseInfo{}
				}
				dn.Info = info
				err = dn.Info.Unmarshal(v)
			}
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	return nil
}

func (dn *DenseNodes) fields() [4]packed {
	return [4]packed{
		sint64Packed(denseID, dn.ID),
		sint64Packed(denseLat, dn.Lat),
		sint64Packed(denseLon, dn.Lon),
		newPacked(denseKeysVals, len(dn.KeysVals), func(i int) uint64 { return int32Varint(dn.KeysVals[i]) }),
	}
}

// Size returns the encoded size of dn.
func (dn *DenseNodes) Size() int {
	f := dn.fields()
	size := f[0].size()
	if dn.Info != nil {
		size += sizeBytesField(denseInfo, dn.Info.Size())
	}

	return size + f[1].size() + f[2].size() + f[3].size()
}

// AppendTo appends the encoded DenseNodes to b in field-number order.
func (dn *DenseNodes) AppendTo(b []byte) []byte {
	f := dn.fields()
	b = f[0].appendTo(b)
	if dn.Info != nil {
		b = appendMessageHeader(b, denseInfo, dn.Info.Size())
		b = dn.Info.AppendTo(b)
	}
	for _, p := range f[1:] {
		b = p.appendTo(b)
	}

	return b
}

// Way is an ordered list of node references. Refs are delta coded on the wire.
type Way struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Info *Info
	Refs []int64
}

// Unmarshal parses a Way; id is required.
func (w *Way) Unmarshal(b []byte) error {
	const msg = "Way"

	*w = Way{Keys: w.Keys[:0], Vals: w.Vals[:0], Refs: w.Refs[:0]}
	hasID := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		switch {
		case num == elemID && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeVarint(msg, num, b)
			w.ID, hasID = int64(v), true //nolint:gosec
		case num == elemKeys:
			n, err = consumeUint32s(msg, num, typ, b, &w.Keys)
		case num == elemVals:
			n, err = consumeUint32s(msg, num, typ, b, &w.Vals)
		case num == elemInfo && typ == protowire.BytesType:
			n, err = consumeInfo(msg, b, &w.Info)
		case num == wayRefs:
			n, err = consumeSint64s(msg, num, typ, b, &w.Refs)
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	if !hasID {
		return missing(msg, "id")
	}

	return nil
}

func (w *Way) fields() [3]packed {
	return [3]packed{uint32Packed(elemKeys, w.Keys), uint32Packed(elemVals, w.Vals), sint64Packed(wayRefs, w.Refs)}
}

// Size returns the encoded size of w.
func (w *Way) Size() int {
	f := w.fields()

	return sizeVarintField(elemID, uint64(w.ID)) + f[0].size() + f[1].size() + sizeInfo(w.Info) + f[2].size() //nolint:gosec
}

// AppendTo appends the encoded Way to b.
func (w *Way) AppendTo(b []byte) []byte {
	f := w.fields()
	b = appendVarintField(b, elemID, uint64(w.ID)) //nolint:gosec
	b = f[0].appendTo(b)
	b = f[1].appendTo(b)
	b = appendInfo(b, w.Info)

	return f[2].appendTo(b)
}

// Relation groups members of any kind. MemIDs are delta coded on the wire;
// RolesSID, MemIDs and Types are parallel.
type Relation struct {
	ID       int64
	Keys     []uint32
	Vals     []uint32
	Info     *Info
	RolesSID []int32
	MemIDs   []int64
	Types    []format.MemberType
}

// Unmarshal parses a Relation; id is required.
func (r *Relation) Unmarshal(b []byte) error {
	const msg = "Relation"

	*r = Relation{
		Keys:     r.Keys[:0],
		Vals:     r.Vals[:0],
		RolesSID: r.RolesSID[:0],
		MemIDs:   r.MemIDs[:0],
		Types:    r.Types[:0],
	}
	hasID := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		switch {
		case num == elemID && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeVarint(msg, num, b)
			r.ID, hasID = int64(v), true //nolint:gosec
		case num == elemKeys:
			n, err = consumeUint32s(msg, num, typ, b, &r.Keys)
		case num == elemVals:
			n, err = consumeUint32s(msg, num, typ, b, &r.Vals)
		case num == elemInfo && typ == protowire.BytesType:
			n, err = consumeInfo(msg, b, &r.Info)
		case num == relRoles:
			n, err = consumeInt32s(msg, num, typ, b, &r.RolesSID)
		case num == relMemIDs:
			n, err = consumeSint64s(msg, num, typ, b, &r.MemIDs)
		case num == relTypes:
			n, err = consumeRepeated(msg, num, typ, b, func(v uint64) {
				r.Types = append(r.Types, format.MemberType(v)) //nolint:gosec
			})
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	if !hasID {
		return missing(msg, "id")
	}

	return nil
}

func (r *Relation) fields() [5]packed {
	return [5]packed{
		uint32Packed(elemKeys, r.Keys),
		uint32Packed(elemVals, r.Vals),
		newPacked(relRoles, len(r.RolesSID), func(i int) uint64 { return int32Varint(r.RolesSID[i]) }),
		sint64Packed(relMemIDs, r.MemIDs),
		newPacked(relTypes, len(r.Types), func(i int) uint64 { return uint64(r.Types[i]) }),
	}
}

// Size returns the encoded size of r.
func (r *Relation) Size() int {
	size := sizeVarintField(elemID, uint64(r.ID)) + sizeInfo(r.Info) //nolint:gosec
	for _, p := range r.fields() {
		size += p.size()
	}

	return size
}

// AppendTo appends the encoded Relation to b.
func (r *Relation) AppendTo(b []byte) []byte {
	f := r.fields()
	b = appendVarintField(b, elemID, uint64(r.ID)) //nolint:gosec
	b = f[0].appendTo(b)
	b = f[1].appendTo(b)
	b = appendInfo(b, r.Info)
	for _, p := range f[2:] {
		b = p.appendTo(b)
	}

	return b
}

func uint32Packed(num protowire.Number, v []uint32) packed {
	return newPacked(num, len(v), func(i int) uint64 { return uint64(v[i]) })
}

func sint64Packed(num protowire.Number, v []int64) packed {
	return newPacked(num, len(v), func(i int) uint64 { return zigzag64(v[i]) })
}
