package altitude

import "sync/atomic"

// Buffer is a fixed-capacity ring of raw ADC samples.
//
// It has exactly one writer (the sampling timer) and one reader (the control
// loop). Writes always succeed and overwrite whatever is at the write index.
// Reads never block; reading faster than samples arrive returns stale values.
// There is no empty/full tracking: once the first capacity samples have been
// written the whole ring is considered populated.
type Buffer struct {
	slots []atomic.Uint32

	// windex is owned by the writer, rindex by the reader.
	windex int
	rindex int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{slots: make([]atomic.Uint32, capacity)}
}

func (b *Buffer) Cap() int { return len(b.slots) }

// Write stores v at the write index and advances it.
func (b *Buffer) Write(v uint16) {
	b.slots[b.windex].Store(uint32(v))
	b.windex++
	if b.windex >= len(b.slots) {
		b.windex = 0
	}
}

// Read returns the value at the read index and advances it.
func (b *Buffer) Read() uint16 {
	v := b.slots[b.rindex].Load()
	b.rindex++
	if b.rindex >= len(b.slots) {
		b.rindex = 0
	}
	return uint16(v)
}
