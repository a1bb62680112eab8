package schema

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/osmpbf/errs"
)

// wireError wraps a negative protowire length into errs.ErrTruncated.
func wireError(msg string, num protowire.Number, n int) error {
	return fmt.Errorf("%w: %s field %d: %v", errs.ErrTruncated, msg, num, protowire.ParseError(n))
}

func missing(msg, field string) error {
	return fmt.Errorf("%w: %s.%s", errs.ErrMissingRequiredField, msg, field)
}

// skipField consumes the value of an unknown or unexpected field.
func skipField(msg string, num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, wireError(msg, num, n)
	}

	return n, nil
}

// consumeVarint reads one varint value of field num.
func consumeVarint(msg string, num protowire.Number, b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, wireError(msg, num, n)
	}

	return v, n, nil
}

// consumeBytes reads one length-delimited value of field num. The returned
// slice aliases b.
func consumeBytes(msg string, num protowire.Number, b []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, wireError(msg, num, n)
	}

	return v, n, nil
}

// consumeRepeated decodes a repeated scalar field in either packed
// (BytesType) or unpacked (VarintType) form, calling add for every value.
func consumeRepeated(msg string, num protowire.Number, typ protowire.Type, b []byte, add func(uint64)) (int, error) {
	switch typ {
	case protowire.VarintType:
		v, n, err := consumeVarint(msg, num, b)
		if err != nil {
			return 0, err
		}
		add(v)

		return n, nil
	case protowire.BytesType:
		packed, n, err := consumeBytes(msg, num, b)
		if err != nil {
			return 0, err
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return 0, wireError(msg, num, m)
			}
			add(v)
			packed = packed[m:]
		}

		return n, nil
	default:
		return skipField(msg, num, typ, b)
	}
}

// countPacked returns the number of varints in a packed payload. It is used
// to size destination slices before decoding.
func countPacked(typ protowire.Type, b []byte) int {
	if typ != protowire.BytesType {
		return 1
	}
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0
	}
	count := 0
	for _, c := range packed {
		if c < 0x80 {
			count++
		}
	}

	return count
}

func consumeSint64s(msg string, num protowire.Number, typ protowire.Type, b []byte, dst *[]int64) (int, error) {
	*dst = growInt64(*dst, countPacked(typ, b))
	return consumeRepeated(msg, num, typ, b, func(v uint64) {
		*dst = append(*dst, protowire.DecodeZigZag(v))
	})
}

func consumeInt32s(msg string, num protowire.Number, typ protowire.Type, b []byte, dst *[]int32) (int, error) {
	return consumeRepeated(msg, num, typ, b, func(v uint64) {
		*dst = append(*dst, int32(v)) //nolint:gosec
	})
}

func consumeSint32s(msg string, num protowire.Number, typ protowire.Type, b []byte, dst *[]int32) (int, error) {
	return consumeRepeated(msg, num, typ, b, func(v uint64) {
		*dst = append(*dst, int32(protowire.DecodeZigZag(v&0xffffffff))) //nolint:gosec
	})
}

func consumeUint32s(msg string, num protowire.Number, typ protowire.Type, b []byte, dst *[]uint32) (int, error) {
	return consumeRepeated(msg, num, typ, b, func(v uint64) {
		*dst = append(*dst, uint32(v)) //nolint:gosec
	})
}

func consumeBools(msg string, num protowire.Number, typ protowire.Type, b []byte, dst *[]bool) (int, error) {
	return consumeRepeated(msg, num, typ, b, func(v uint64) {
		*dst = append(*dst, v != 0)
	})
}

func growInt64(s []int64, n int) []int64 {
	if cap(s)-len(s) >= n {
		return s
	}
	grown := make([]int64, len(s), len(s)+n)
	copy(grown, s)

	return grown
}

// Encoding helpers. Every repeated scalar is written packed; empty repeated
// fields and zero-valued optional fields are omitted.

func sizeTag(num protowire.Number) int {
	return protowire.SizeTag(num)
}

func sizeVarintField(num protowire.Number, v uint64) int {
	return sizeTag(num) + protowire.SizeVarint(v)
}

func sizeBytesField(num protowire.Number, n int) int {
	return sizeTag(num) + protowire.SizeBytes(n)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendMessageHeader writes the tag and length prefix of an embedded message
// of the given size; the caller appends the body next.
func appendMessageHeader(b []byte, num protowire.Number, size int) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendVarint(b, uint64(size)) //nolint:gosec
}

func packedSize(n int, each func(i int) uint64) int {
	total := 0
	for i := 0; i < n; i++ {
		total += protowire.SizeVarint(each(i))
	}

	return total
}

// packedFieldSize returns the encoded size of a packed field whose payload
// is payload bytes long; zero when the field is omitted.
func packedFieldSize(num protowire.Number, count, payload int) int {
	if count == 0 {
		return 0
	}

	return sizeBytesField(num, payload)
}

func appendPacked(b []byte, num protowire.Number, n, payload int, each func(i int) uint64) []byte {
	if n == 0 {
		return b
	}
	b = appendMessageHeader(b, num, payload)
	for i := 0; i < n; i++ {
		b = protowire.AppendVarint(b, each(i))
	}

	return b
}

func zigzag64(v int64) uint64 {
	return protowire.EncodeZigZag(v)
}

func zigzag32(v int32) uint64 {
	return uint64(uint32((v << 1) ^ (v >> 31))) //nolint:gosec
}

func int32Varint(v int32) uint64 {
	return uint64(int64(v)) //nolint:gosec
}

// packed is a precomputed packed field: its values and payload size.
type packed struct {
	num     protowire.Number
	n       int
	payload int
	each    func(i int) uint64
}

func newPacked(num protowire.Number, n int, each func(i int) uint64) packed {
	return packed{num: num, n: n, payload: packedSize(n, each), each: each}
}

func (p packed) size() int {
	return packedFieldSize(p.num, p.n, p.payload)
}

func (p packed) appendTo(b []byte) []byte {
	return appendPacked(b, p.num, p.n, p.payload, p.each)
}
