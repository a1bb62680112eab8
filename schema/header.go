package schema

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// HeaderBlock field numbers.
const (
	headerBBox            protowire.Number = 1
	headerRequired        protowire.Number = 4
	headerOptional        protowire.Number = 5
	headerWritingProgram  protowire.Number = 16
	headerSource          protowire.Number = 17
	headerReplicationTime protowire.Number = 32
	headerReplicationSeq  protowire.Number = 33
	headerReplicationBase protowire.Number = 34
	bboxLeft              protowire.Number = 1
	bboxRight             protowire.Number = 2
	bboxTop               protowire.Number = 3
	bboxBottom            protowire.Number = 4
)

// HeaderBBox is a bounding box in nanodegrees.
type HeaderBBox struct {
	Left   int64
	Right  int64
	Top    int64
	Bottom int64
}

// Unmarshal parses a HeaderBBox; all four edges are required.
func (bb *HeaderBBox) Unmarshal(b []byte) error {
	const msg = "HeaderBBox"

	*bb = HeaderBBox{}
	var seen [5]bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(msg, 0, n)
		}
		b = b[n:]

		var err error
		if num >= bboxLeft && num <= bboxBottom && typ == protowire.VarintType {
			var v uint64
			v, n, err = consumeVarint(msg, num, b)
			edge := protowire.DecodeZigZag(v)
			switch num {
			case bboxLeft:
				bb.Left = edge
			case bboxRight:
				bb.Right = edge
			case bboxTop:
				bb.Top = edge
			case bboxBottom:
				bb.Bottom = edge
			}
			seen[num] = true
		} else {
			n, err = skipField(msg, num, typ, b)
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}

	for i, name := range [...]string{"", "left", "right", "top", "bottom"} {
		if i > 0 && !seen[i] {
			return missing(msg, name)
		}
	}

	return nil
}

// Size returns the encoded size of bb.
func (bb *HeaderBBox) Size() int {
	return sizeVarintField(bboxLeft, zigzag64(bb.Left)) +
		sizeVarintField(bboxRight, zigzag64(bb.Right)) +
		sizeVarintField(bboxTop, zigzag64(bb.Top)) +
		sizeVarintField(bboxBottom, zigzag64(bb.Bottom))
}

// AppendTo appends the encoded bounding box to b.
func (bb *HeaderBBox) AppendTo(b []byte) []byte {
	b = appendVarintField(b, bboxLeft, zigzag64(bb.Left))
	b = appendVarintField(b, bboxRight, zigzag64(bb.Right))
	b = appendVarintField(b, bboxTop, zigzag64(bb.Top))

	return appendVarintField(b, bboxBottom, zigzag64(bb.Bottom))
}

// HeaderBlock is the payload of the OSMHeader blob that opens every file.
type HeaderBlock struct {
	BBox             *HeaderBBox
	RequiredFeatures []string
	OptionalFeatures []string
	WritingProgram   string
	Source           string

	// Replication state written by osmosis-style updaters. Zero means absent.
	ReplicationTimestamp int64
	ReplicationSequence  int64
	ReplicationBaseURL   string
}

// Unmarshal parses a HeaderBlock. Strings are copied out of b.
func (h *HeaderBlock) Unmarshal(b []byte) error {
	const msg = "HeaderBlock"

	*h = HeaderBlock{}
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
		case num == headerBBox && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			if err == nil {
				h.BBox = &HeaderBBox{}
				err = h.BBox.Unmarshal(v)
			}
		case num == headerRequired && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			h.RequiredFeatures = append(h.RequiredFeatures, string(v))
		case num == headerOptional && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			h.OptionalFeatures = append(h.OptionalFeatures, string(v))
		case num == headerWritingProgram && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			h.WritingProgram = string(v)
		case num == headerSource && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			h.Source = string(v)
		case num == headerReplicationTime && typ == protowire.VarintType:
			u, n, err = consumeVarint(msg, num, b)
			h.ReplicationTimestamp = int64(u) //nolint:gosec
		case num == headerReplicationSeq && typ == protowire.VarintType:
			u, n, err = consumeVarint(msg, num, b)
			h.ReplicationSequence = int64(u) //nolint:gosec
		case num == headerReplicationBase && typ == protowire.BytesType:
			v, n, err = consumeBytes(msg, num, b)
			h.ReplicationBaseURL = string(v)
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

// Size returns the encoded size of h.
func (h *HeaderBlock) Size() int {
	size := 0
	if h.BBox != nil {
		size += sizeBytesField(headerBBox, h.BBox.Size())
	}
	for _, f := range h.RequiredFeatures {
		size += sizeBytesField(headerRequired, len(f))
	}
	for _, f := range h.OptionalFeatures {
		size += sizeBytesField(headerOptional, len(f))
	}
	if h.WritingProgram != "" {
		size += sizeBytesField(headerWritingProgram, len(h.WritingProgram))
	}
	if h.Source != "" {
		size += sizeBytesField(headerSource, len(h.Source))
	}
	if h.ReplicationTimestamp != 0 {
		size += sizeVarintField(headerReplicationTime, uint64(h.ReplicationTimestamp)) //nolint:gosec
	}
	if h.ReplicationSequence != 0 {
		size += sizeVarintField(headerReplicationSeq, uint64(h.ReplicationSequence)) //nolint:gosec
	}
	if h.ReplicationBaseURL != "" {
		size += sizeBytesField(headerReplicationBase, len(h.ReplicationBaseURL))
	}

	return size
}

// AppendTo appends the encoded HeaderBlock to b.
func (h *HeaderBlock) AppendTo(b []byte) []byte {
	if h.BBox != nil {
		b = appendMessageHeader(b, headerBBox, h.BBox.Size())
		b = h.BBox.AppendTo(b)
	}
	for _, f := range h.RequiredFeatures {
		b = appendStringField(b, headerRequired, f)
	}
	for _, f := range h.OptionalFeatures {
		b = appendStringField(b, headerOptional, f)
	}
	if h.WritingProgram != "" {
		b = appendStringField(b, headerWritingProgram, h.WritingProgram)
	}
	if h.Source != "" {
		b = appendStringField(b, headerSource, h.Source)
	}
	if h.ReplicationTimestamp != 0 {
		b = appendVarintField(b, headerReplicationTime, uint64(h.ReplicationTimestamp)) //nolint:gosec
	}
	if h.ReplicationSequence != 0 {
		b = appendVarintField(b, headerReplicationSeq, uint64(h.ReplicationSequence)) //nolint:gosec
	}
	if h.ReplicationBaseURL != "" {
		b = appendStringField(b, headerReplicationBase, h.ReplicationBaseURL)
	}

	return b
}
