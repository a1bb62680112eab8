package pool

import (
	"io"
	"sync"
)

// Default sizes for pooled buffers.
const (
	FrameBufferDefaultSize  = 1024 * 64        // 64KiB, one typical compressed blob
	FrameBufferMaxThreshold = 1024 * 1024 * 4  // 4MiB
	BlockBufferDefaultSize  = 1024 * 1024      // 1MiB, one typical decompressed block
	BlockBufferMaxThreshold = 1024 * 1024 * 40 // 40MiB, above the default body ceiling
)

// ByteBuffer is a growable byte slice that keeps its capacity across Reset calls.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but keeps the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Grow makes room for at least n more bytes without another allocation.
//
// Small buffers grow by FrameBufferDefaultSize, larger ones by a quarter of
// their capacity, and never by less than n.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	growBy := FrameBufferDefaultSize
	if cap(bb.B) > 4*FrameBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < n {
		growBy = n
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Resize sets the length of the buffer to exactly n bytes.
//
// The existing allocation is reused when it is large enough; otherwise a new
// one of exactly n bytes replaces it. The contents are unspecified afterwards.
func (bb *ByteBuffer) Resize(n int) []byte {
	if cap(bb.B) < n {
		bb.B = make([]byte, n)
	}
	bb.B = bb.B[:n]

	return bb.B
}

// Write appends data to the buffer. It never returns an error.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a sync.Pool of ByteBuffers that drops buffers grown past
// maxThreshold instead of retaining them.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool producing buffers of defaultSize capacity.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	framePool = NewByteBufferPool(FrameBufferDefaultSize, FrameBufferMaxThreshold)
	blockPool = NewByteBufferPool(BlockBufferDefaultSize, BlockBufferMaxThreshold)
)

// GetFrameBuffer retrieves a buffer sized for raw frames.
func GetFrameBuffer() *ByteBuffer {
	return framePool.Get()
}

// PutFrameBuffer returns a frame buffer to its pool.
func PutFrameBuffer(bb *ByteBuffer) {
	framePool.Put(bb)
}

// GetBlockBuffer retrieves a buffer sized for decompressed blocks.
func GetBlockBuffer() *ByteBuffer {
	return blockPool.Get()
}

// PutBlockBuffer returns a block buffer to its pool.
func PutBlockBuffer(bb *ByteBuffer) {
	blockPool.Put(bb)
}
