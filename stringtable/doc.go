// Package stringtable implements both sides of the PBF block string table.
//
// Table is the read side: a flat array of byte strings indexed by id, as
// found in a decoded primitive block. Pool is the write side: a reference
// counted interning pool that hands out the lowest free id and renumbers live
// ids contiguously when the block is serialized.
//
// Id 0 is reserved on both sides. It always resolves to the empty string and
// is never assigned to a real value, which lets it act as the terminator in
// dense node key/value lists and as the "removed" marker in the encoder.
package stringtable
