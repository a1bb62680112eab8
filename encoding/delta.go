package encoding

import "iter"

// Integer is the set of column element types that are delta coded.
type Integer interface {
	~int32 | ~int64
}

// Encode appends the delta coding of src to dst and returns the extended slice.
func Encode[T Integer](dst, src []T) []T {
	var prev T
	for _, v := range src {
		dst = append(dst, v-prev)
		prev = v
	}

	return dst
}

// EncodeInPlace rewrites absolute values in s to deltas.
func EncodeInPlace[T Integer](s []T) {
	var prev T
	for i, v := range s {
		s[i] = v - prev
		prev = v
	}
}

// Decode appends the absolute values of deltas to dst and returns the
// extended slice.
func Decode[T Integer](dst, deltas []T) []T {
	var sum T
	for _, d := range deltas {
		sum += d
		dst = append(dst, sum)
	}

	return dst
}

// DecodeInPlace rewrites deltas in s to absolute values.
func DecodeInPlace[T Integer](s []T) {
	var sum T
	for i, d := range s {
		sum += d
		s[i] = sum
	}
}

// At returns the absolute value at index i by summing deltas[0..i].
//
// This is O(i); use DecodeInPlace or a DeltaDecoder for repeated access.
func At[T Integer](deltas []T, i int) T {
	var sum T
	for _, d := range deltas[:i+1] {
		sum += d
	}

	return sum
}

// All returns an iterator over the absolute values of deltas.
func All[T Integer](deltas []T) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		var sum T
		for i, d := range deltas {
			sum += d
			if !yield(i, sum) {
				return
			}
		}
	}
}

// DeltaDecoder is a running-sum accumulator over a delta coded column.
//
// Forward moves add the delta of the entry being entered; backward moves
// subtract the delta of the entry being left. A DeltaDecoder holds no
// reference to the column, so the same accumulator can be used across
// several columns of equal length.
type DeltaDecoder[T Integer] struct {
	sum T
}

// Value returns the current absolute value.
func (d *DeltaDecoder[T]) Value() T {
	return d.sum
}

// Forward adds delta and returns the new absolute value.
func (d *DeltaDecoder[T]) Forward(delta T) T {
	d.sum += delta
	return d.sum
}

// Backward subtracts delta, the delta of the entry being left, and returns
// the new absolute value.
func (d *DeltaDecoder[T]) Backward(delta T) T {
	d.sum -= delta
	return d.sum
}

// Set replaces the accumulator value.
func (d *DeltaDecoder[T]) Set(v T) {
	d.sum = v
}

// Reset sets the accumulator back to zero.
func (d *DeltaDecoder[T]) Reset() {
	d.sum = 0
}

// DeltaEncoder turns a stream of absolute values into deltas.
type DeltaEncoder[T Integer] struct {
	prev T
	out  []T
}

// NewDeltaEncoder creates an encoder with room for capacity values.
func NewDeltaEncoder[T Integer](capacity int) *DeltaEncoder[T] {
	return &DeltaEncoder[T]{out: make([]T, 0, capacity)}
}

// Write encodes a single absolute value.
func (e *DeltaEncoder[T]) Write(v T) {
	e.out = append(e.out, v-e.prev)
	e.prev = v
}

// WriteSlice encodes a slice of absolute values.
func (e *DeltaEncoder[T]) WriteSlice(values []T) {
	for _, v := range values {
		e.Write(v)
	}
}

// Values returns the deltas written so far. The slice is valid until the
// next Write or Reset.
func (e *DeltaEncoder[T]) Values() []T {
	return e.out
}

// Len returns the number of values written.
func (e *DeltaEncoder[T]) Len() int {
	return len(e.out)
}

// Reset clears the encoder, keeping its buffer.
func (e *DeltaEncoder[T]) Reset() {
	e.prev = 0
	e.out = e.out[:0]
}
