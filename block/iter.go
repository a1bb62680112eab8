package block

import (
	"iter"

	"github.com/arloliu/osmpbf/encoding"
	"github.com/arloliu/osmpbf/format"
)

// All returns an iterator over every primitive in block order. Within a
// group, plain nodes come first, then dense nodes, ways and relations.
//
// Dense nodes are decoded with a running sum, so a full iteration is O(n)
// whether or not the block is unpacked.
func (b *Block) All() iter.Seq[Primitive] {
	gen := b.gen

	return func(yield func(Primitive) bool) {
		pi, di, wi, ri := 0, 0, 0, 0
		for gi := range b.pb.Groups {
			if b.gen != gen {
				return
			}

			if pi < len(b.plain) && b.plain[pi].group == gi {
				for i := 0; i < b.plain[pi].n; i++ {
					if !yield(b.plainView(pi, i)) {
						return
					}
				}
				pi++
			}

			if di < len(b.dense) && b.dense[di].group == gi {
				if !b.yieldDense(di, yield) {
					return
				}
				di++
			}

			if wi < len(b.ways) && b.ways[wi].group == gi {
				for i := 0; i < b.ways[wi].n; i++ {
					if !yield(WayView{view: view{blk: b, gen: gen, ref: int32(wi), index: int32(i)}}) { //nolint:gosec
						return
					}
				}
				wi++
			}

			if ri < len(b.rels) && b.rels[ri].group == gi {
				for i := 0; i < b.rels[ri].n; i++ {
					if !yield(RelationView{view: view{blk: b, gen: gen, ref: int32(ri), index: int32(i)}}) { //nolint:gosec
						return
					}
				}
				ri++
			}
		}
	}
}

func (b *Block) yieldDense(r int, yield func(Primitive) bool) bool {
	d := b.denseCols(r)
	if b.unpacked {
		for i := range d.ID {
			if !yield(b.denseView(r, i, d.ID[i], d.Lat[i], d.Lon[i])) {
				return false
			}
		}

		return true
	}

	var id, lat, lon encoding.DeltaDecoder[int64]
	for i := range d.ID {
		if !yield(b.denseView(r, i, id.Forward(d.ID[i]), lat.Forward(d.Lat[i]), lon.Forward(d.Lon[i]))) {
			return false
		}
	}

	return true
}

// AllNodes returns an iterator over the nodes of the given encodings.
func (b *Block) AllNodes(kinds format.NodeKind) iter.Seq[NodeView] {
	return func(yield func(NodeView) bool) {
		for c := b.Nodes(kinds); c.Next(); {
			if !yield(c.Current()) {
				return
			}
		}
	}
}
