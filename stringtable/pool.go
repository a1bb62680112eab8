package stringtable

import (
	"container/heap"
)

// Pool is the write-side string table of a block encoder.
//
// Every Insert takes a reference on the returned id and every Remove drops
// one. An id is freed when its count reaches zero and is reused by a later
// Insert; the lowest free id is always handed out first. An id is never
// reassigned while its count is positive.
//
// Pool is not safe for concurrent use.
type Pool struct {
	ids    map[string]uint32
	values []string
	refs   []int
	free   idQueue
	live   int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	p := &Pool{}
	p.Reset()

	return p
}

// Insert interns value and returns its id, taking one reference.
//
// The empty string maps to the reserved id 0 and is not counted.
//
// Parameters:
//   - value: string to intern
//
// Returns:
//   - uint32: existing id of value, else the lowest free id, else a new one
func (p *Pool) Insert(value string) uint32 {
	if value == "" {
		return 0
	}
	if id, ok := p.ids[value]; ok {
		p.refs[id]++
		return id
	}

	var id uint32
	if p.free.Len() > 0 {
		id = heap.Pop(&p.free).(uint32) //nolint:forcetypeassert
		p.values[id] = value
		p.refs[id] = 1
	} else {
		id = uint32(len(p.values)) //nolint:gosec
		p.values = append(p.values, value)
		p.refs = append(p.refs, 1)
	}
	p.ids[value] = id
	p.live++

	return id
}

// Remove drops one reference on id and frees it when none remain.
// Removing id 0, an unknown id or a free id is a no-op.
func (p *Pool) Remove(id uint32) {
	if id == 0 || int(id) >= len(p.refs) || p.refs[id] == 0 {
		return
	}

	p.refs[id]--
	if p.refs[id] > 0 {
		return
	}
	delete(p.ids, p.values[id])
	p.values[id] = ""
	p.live--
	heap.Push(&p.free, id)
}

// RemoveString drops one reference on the id of value, if interned.
func (p *Pool) RemoveString(value string) {
	p.Remove(p.ID(value))
}

// ID returns the id of value without taking a reference, or 0 if value is
// not interned.
func (p *Pool) ID(value string) uint32 {
	return p.ids[value]
}

// Value returns the string held by id, or "" for id 0 and free ids.
func (p *Pool) Value(id uint32) string {
	if int(id) >= len(p.values) {
		return ""
	}

	return p.values[id]
}

// Refs returns the reference count of id.
func (p *Pool) Refs(id uint32) int {
	if id == 0 || int(id) >= len(p.refs) {
		return 0
	}

	return p.refs[id]
}

// Len returns the number of interned values, excluding the reserved id 0.
func (p *Pool) Len() int {
	return p.live
}

// Compact renumbers the live ids contiguously from 1, keeping their relative
// order, and returns the resulting string table with the reserved empty
// entry at index 0.
//
// The pool itself is left unchanged.
//
// Returns:
//   - table: live strings in id order, table[0] being the empty string
//   - remap: new id for every old id; free ids and 0 map to 0
func (p *Pool) Compact() (table [][]byte, remap []uint32) {
	table = make([][]byte, 1, p.live+1)
	table[0] = []byte{}
	remap = make([]uint32, len(p.values))

	for id := 1; id < len(p.values); id++ {
		if p.refs[id] == 0 {
			continue
		}
		remap[id] = uint32(len(table)) //nolint:gosec
		table = append(table, []byte(p.values[id]))
	}

	return table, remap
}

// Reset empties the pool.
func (p *Pool) Reset() {
	p.ids = make(map[string]uint32)
	p.values = append(p.values[:0], "")
	p.refs = append(p.refs[:0], 0)
	p.free = p.free[:0]
	p.live = 0
}

// idQueue is a min-heap of free ids.
type idQueue []uint32

var _ heap.Interface = (*idQueue)(nil)

func (q idQueue) Len() int           { return len(q) }
func (q idQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q idQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *idQueue) Push(x any) {
	*q = append(*q, x.(uint32)) //nolint:forcetypeassert
}

func (q *idQueue) Pop() any {
	old := *q
	n := len(old)
	id := old[n-1]
	*q = old[:n-1]

	return id
}
