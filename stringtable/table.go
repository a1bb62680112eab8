package stringtable

// Table is a read-only view of a block string table.
//
// The entries usually alias a decoded payload and are only valid while that
// payload is.
type Table struct {
	entries [][]byte
}

// NewTable wraps entries without copying them.
func NewTable(entries [][]byte) Table {
	return Table{entries: entries}
}

// Len returns the number of entries, including the reserved entry 0.
func (t Table) Len() int {
	return len(t.entries)
}

// Valid reports whether id refers to an entry of the table.
func (t Table) Valid(id uint32) bool {
	return int(id) < len(t.entries)
}

// Bytes returns entry id without copying. Id 0 and out-of-range ids return nil.
func (t Table) Bytes(id uint32) []byte {
	if id == 0 || int(id) >= len(t.entries) {
		return nil
	}

	return t.entries[id]
}

// String returns entry id as a string. Id 0 always returns "" whatever the
// table holds at that position, and so do out-of-range ids.
func (t Table) String(id uint32) string {
	return string(t.Bytes(id))
}

// Find returns the id of value, or 0 when it is absent or empty.
//
// The search is linear.
func (t Table) Find(value string) uint32 {
	if value == "" {
		return 0
	}
	for i := 1; i < len(t.entries); i++ {
		if string(t.entries[i]) == value {
			return uint32(i) //nolint:gosec
		}
	}

	return 0
}
