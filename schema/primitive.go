package schema

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/osmpbf/format"
)

const (
	blockStringTable     protowire.Number = 1
	blockGroup           protowire.Number = 2
	blockGranularity     protowire.Number = 17
	blockDateGranularity protowire.Number = 18
	blockLatOffset       protowire.Number = 19
	blockLonOffset       protowire.Number = 20

	stringTableS protowire.Number = 1

	groupNodes      protowire.Number = 1
	groupDense      protowire.Number = 2
	groupWays       protowire.Number = 3
	groupRelations  protowire.Number = 4
	groupChangesets protowire.Number = 5
)

// PrimitiveGroup holds the primitives of one group. The format expects a
// single kind per group; a group carrying several kinds still decodes.
type PrimitiveGroup struct {
	Nodes     []Node
	Dense     *DenseNodes
	Ways      []Way
	Relations []Relation
	// Changesets counts changeset records, which are skipped.
	Changesets int
}

// Unmarshal parses a PrimitiveGroup, reusing element storage from a
// previous parse where possible.
func (g *PrimitiveGroup) Unmarshal(b []byte) error {
	const msg = "PrimitiveGroup"

	g.Nodes = g.Nodes[:0]
	g.Ways = g.Ways[:0]
	g.Relations = g.Relations[:0]
	g.Changesets = 0
	dense := g.Dense
	g.Dense = nil

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			m, err := skipField(msg, num, typ, b)
			if err != nil {
				return err
			}
			b = b[m:]

			continue
		}

		v, n, err := consumeBytes(msg, num, b)
		if err != nil {
			return err
		}
		switch num {
		case groupNodes:
			g.Nodes = extend(g.Nodes)
			err = g.Nodes[len(g.Nodes)-1].Unmarshal(v)
		case groupDense:
			if dense == nil {
				dense = &DenseNodes{}
			}
			g.Dense = dense
			err = g.Dense.Unmarshal(v)
		case groupWays:
			g.Ways = extend(g.Ways)
			err = g.Ways[len(g.Ways)-1].Unmarshal(v)
		case groupRelations:
			g.Relations = extend(g.Relations)
			err = g.Relations[len(g.Relations)-1].Unmarshal(v)
		case groupChangesets:
			g.Changesets++
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	return nil
}

// Kinds reports which primitive kinds the group holds.
func (g *PrimitiveGroup) Kinds() (nodes format.NodeKind, ways, relations bool) {
	if len(g.Nodes) > 0 {
		nodes |= format.NodePlain
	}
	if g.Dense != nil && len(g.Dense.ID) > 0 {
		nodes |= format.NodeDense
	}

	return nodes, len(g.Ways) > 0, len(g.Relations) > 0
}

// Size returns the encoded size of g.
func (g *PrimitiveGroup) Size() int {
	size := 0
	for i := range g.Nodes {
		size += sizeBytesField(groupNodes, g.Nodes[i].Size())
	}
	if g.Dense != nil {
		size += sizeBytesField(groupDense, g.Dense.Size())
	}
	for i := range g.Ways {
		size += sizeBytesField(groupWays, g.Ways[i].Size())
	}
	for i := range g.Relations {
		size += sizeBytesField(groupRelations, g.Relations[i].Size())
	}

	return size
}

// AppendTo appends the encoded PrimitiveGroup to b.
func (g *PrimitiveGroup) AppendTo(b []byte) []byte {
	for i := range g.Nodes {
		b = appendMessageHeader(b, groupNodes, g.Nodes[i].Size())
		b = g.Nodes[i].AppendTo(b)
	}
	if g.Dense != nil {
		b = appendMessageHeader(b, groupDense, g.Dense.Size())
		b = g.Dense.AppendTo(b)
	}
	for i := range g.Ways {
		b = appendMessageHeader(b, groupWays, g.Ways[i].Size())
		b = g.Ways[i].AppendTo(b)
	}
	for i := range g.Relations {
		b = appendMessageHeader(b, groupRelations, g.Relations[i].Size())
		b = g.Relations[i].AppendTo(b)
	}

	return b
}

// PrimitiveBlock is the decompressed payload of an OSMData blob.
type PrimitiveBlock struct {
	// Strings is the block string table. Entries alias the parsed payload.
	Strings [][]byte
	Groups  []PrimitiveGroup

	Granularity     int32
	DateGranularity int32
	LatOffset       int64
	LonOffset       int64
}

// Unmarshal parses a PrimitiveBlock. Optional fields take their format
// defaults; the string table is required.
//
// The block keeps references into b, so b must stay unmodified for as long
// as the block is in use. Group and element storage from a previous call is
// reused.
func (pb *PrimitiveBlock) Unmarshal(b []byte) error {
	const msg = "PrimitiveBlock"

	pb.Strings = pb.Strings[:0]
	pb.Groups = pb.Groups[:0]
	pb.Granularity = format.DefaultGranularity
	pb.DateGranularity = format.DefaultDateGranularity
	pb.LatOffset, pb.LonOffset = 0, 0

	hasStrings := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var (
			err error
			v   []byte
			u   uint64
		)
		switch {
		case num == blockStringTable && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			if err == nil {
				err = pb.unmarshalStrings(v)
				hasStrings = true
			}
		case num == blockGroup && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			if err == nil {
				pb.Groups = extend(pb.Groups)
				err = pb.Groups[len(pb.Groups)-1].Unmarshal(v)
			}
		case num == blockGranularity && typ == protowire.VarintType:
			u, n, err = consumeVarint(msg, num, b)
			pb.Granularity = int32(u) //nolint:gosec
		case num == blockDateGranularity && typ == protowire.VarintType:
			u, n, err = consumeVarint(msg, num, b)
			pb.DateGranularity = int32(u) //nolint:gosec
		case num == blockLatOffset && typ == protowire.VarintType:
			u, n, err = consumeVarint(msg, num, b)
			pb.LatOffset = int64(u) //nolint:gosec
		case num == blockLonOffset && typ == protowire.VarintType:
			u, n, err = consumeVarint(msg, num, b)
			pb.LonOffset = int64(u) //nolint:gosec
		default:
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	if !hasStrings {
		return missing(msg, "stringtable")
	}

	return nil
}

func (pb *PrimitiveBlock) unmarshalStrings(b []byte) error {
	const msg = "StringTable"

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		if num == stringTableS && typ == protowire.BytesType {
			var v []byte
			v, n, err = consumeBytes(msg, num, b)
			pb.Strings = append(pb.Strings, v)
		} else {
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	return nil
}

func (pb *PrimitiveBlock) stringTableSize() int {
	size := 0
	for _, s := range pb.Strings {
		size += sizeBytesField(stringTableS, len(s))
	}

	return size
}

// Size returns the encoded size of pb.
func (pb *PrimitiveBlock) Size() int {
	size := sizeBytesField(blockStringTable, pb.stringTableSize())
	for i := range pb.Groups {
		size += sizeBytesField(blockGroup, pb.Groups[i].Size())
	}
	if pb.Granularity != format.DefaultGranularity {
		size += sizeVarintField(blockGranularity, int32Varint(pb.Granularity))
	}
	if pb.DateGranularity != format.DefaultDateGranularity {
		size += sizeVarintField(blockDateGranularity, int32Varint(pb.DateGranularity))
	}
	if pb.LatOffset != 0 {
		size += sizeVarintField(blockLatOffset, uint64(pb.LatOffset)) //nolint:gosec
	}
	if pb.LonOffset != 0 {
		size += sizeVarintField(blockLonOffset, uint64(pb.LonOffset)) //nolint:gosec
	}

	return size
}

// AppendTo appends the encoded PrimitiveBlock to b. Fields equal to their
// format defaults are omitted.
func (pb *PrimitiveBlock) AppendTo(b []byte) []byte {
	b = appendMessageHeader(b, blockStringTable, pb.stringTableSize())
	for _, s := range pb.Strings {
		b = appendBytesField(b, stringTableS, s)
	}
	for i := range pb.Groups {
		b = appendMessageHeader(b, blockGroup, pb.Groups[i].Size())
		b = pb.Groups[i].AppendTo(b)
	}
	if pb.Granularity != format.DefaultGranularity {
		b = appendVarintField(b, blockGranularity, int32Varint(pb.Granularity))
	}
	if pb.DateGranularity != format.DefaultDateGranularity {
		b = appendVarintField(b, blockDateGranularity, int32Varint(pb.DateGranularity))
	}
	if pb.LatOffset != 0 {
		b = appendVarintField(b, blockLatOffset, uint64(pb.LatOffset)) //nolint:gosec
	}
	if pb.LonOffset != 0 {
		b = appendVarintField(b, blockLonOffset, uint64(pb.LonOffset)) //nolint:gosec
	}

	return b
}

// Marshal returns pb encoded into a buffer of exactly the right size.
func (pb *PrimitiveBlock) Marshal() []byte {
	return pb.AppendTo(make([]byte, 0, pb.Size()))
}

// extend grows s by one element, reusing the slot beyond len(s) when the
// backing array already holds one.
func extend[T any](s []T) []T {
	if len(s) < cap(s) {
		return s[:len(s)+1]
	}
	var zero T

	return append(s, zero)
}
