package stringtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Insert(t *testing.T) {
	p := NewPool()

	a := p.Insert("amenity")
	b := p.Insert("cafe")
	require.NotZero(t, a)
	require.NotZero(t, b)
	require.NotEqual(t, a, b)

	require.Equal(t, a, p.Insert("amenity"))
	require.Equal(t, 2, p.Refs(a))
	require.Equal(t, 1, p.Refs(b))
	require.Equal(t, 2, p.Len())

	require.Equal(t, "amenity", p.Value(a))
	require.Equal(t, a, p.ID("amenity"))
	require.Equal(t, uint32(0), p.ID("missing"))
	require.Equal(t, 2, p.Refs(a), "ID must not take a reference")
}

func TestPool_EmptyStringIsReserved(t *testing.T) {
	p := NewPool()

	require.Equal(t, uint32(0), p.Insert(""))
	require.Equal(t, 0, p.Len())
	require.Equal(t, 0, p.Refs(0))
	require.Equal(t, "", p.Value(0))

	p.Remove(0)
	require.Equal(t, uint32(1), p.Insert("x"))
}

func TestPool_RemoveFreesAtZero(t *testing.T) {
	p := NewPool()

	id := p.Insert("k")
	p.Insert("k")
	p.Remove(id)
	require.Equal(t, 1, p.Refs(id))
	require.Equal(t, "k", p.Value(id))

	p.Remove(id)
	require.Equal(t, 0, p.Refs(id))
	require.Equal(t, "", p.Value(id))
	require.Equal(t, uint32(0), p.ID("k"))
	require.Equal(t, 0, p.Len())

	// Extra removes are ignored.
	p.Remove(id)
	p.Remove(999)
	require.Equal(t, 0, p.Refs(id))
}

func TestPool_ReusesFreedID(t *testing.T) {
	p := NewPool()

	x := p.Insert("x")
	p.RemoveString("x")

	y := p.Insert("y")
	require.Equal(t, x, y, "freed id must be eligible for reuse by a different value")
	require.Equal(t, "y", p.Value(y))
}

func TestPool_LowestFreeIDFirst(t *testing.T) {
	p := NewPool()

	ids := make([]uint32, 6)
	for i := range ids {
		ids[i] = p.Insert(fmt.Sprintf("v%d", i))
	}
	p.Remove(ids[4])
	p.Remove(ids[1])
	p.Remove(ids[3])

	require.Equal(t, ids[1], p.Insert("a"))
	require.Equal(t, ids[3], p.Insert("b"))
	require.Equal(t, ids[4], p.Insert("c"))
	require.Equal(t, uint32(len(ids)+1), p.Insert("d"))
}

func TestPool_NeverReassignsLiveID(t *testing.T) {
	p := NewPool()
	live := make(map[uint32]string)

	for round := range 50 {
		keep := fmt.Sprintf("keep-%d", round)
		live[p.Insert(keep)] = keep

		tmp := p.Insert(fmt.Sprintf("tmp-%d", round))
		p.Remove(tmp)

		for id, v := range live {
			assert.Equal(t, v, p.Value(id))
		}
	}
	require.Equal(t, 50, p.Len())
}

func TestPool_Compact(t *testing.T) {
	p := NewPool()

	a := p.Insert("a")
	b := p.Insert("b")
	c := p.Insert("c")
	d := p.Insert("d")
	p.Remove(b)

	table, remap := p.Compact()
	require.Equal(t, [][]byte{{}, []byte("a"), []byte("c"), []byte("d")}, table)
	require.Equal(t, uint32(0), remap[0])
	require.Equal(t, uint32(1), remap[a])
	require.Equal(t, uint32(0), remap[b])
	require.Equal(t, uint32(2), remap[c])
	require.Equal(t, uint32(3), remap[d])

	// Compact does not modify the pool.
	require.Equal(t, 3, p.Len())
	require.Equal(t, "d", p.Value(d))
}

func TestPool_Reset(t *testing.T) {
	p := NewPool()
	p.Insert("a")
	p.Insert("b")

	p.Reset()
	require.Equal(t, 0, p.Len())
	require.Equal(t, uint32(0), p.ID("a"))
	require.Equal(t, uint32(1), p.Insert("b"))

	table, _ := p.Compact()
	require.Len(t, table, 2)
}

func BenchmarkPool_InsertRemove(b *testing.B) {
	p := NewPool()
	values := make([]string, 256)
	for i := range values {
		values[i] = fmt.Sprintf("value-%d", i)
	}

	b.ReportAllocs()
	for b.Loop() {
		for _, v := range values {
			p.Insert(v)
		}
		for _, v := range values {
			p.RemoveString(v)
		}
	}
}
