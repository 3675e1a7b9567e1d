package altitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_WrapsAndOverwritesOldest(t *testing.T) {
	b := NewBuffer(3)
	for _, v := range []uint16{1, 2, 3, 4} {
		b.Write(v)
	}

	// Write index wrapped, so slot 0 now holds 4.
	assert.Equal(t, uint16(4), b.Read())
	assert.Equal(t, uint16(2), b.Read())
	assert.Equal(t, uint16(3), b.Read())
	assert.Equal(t, uint16(4), b.Read(), "read index wraps too")
}

func TestBuffer_ReadWithoutWritesReturnsStale(t *testing.T) {
	b := NewBuffer(2)
	b.Write(7)
	b.Write(9)
	for i := 0; i < 3; i++ {
		assert.Equal(t, uint16(7), b.Read())
		assert.Equal(t, uint16(9), b.Read())
	}
}

func TestNewBuffer_NonPositiveCapacity(t *testing.T) {
	b := NewBuffer(0)
	require.Equal(t, 1, b.Cap())
	b.Write(5)
	assert.Equal(t, uint16(5), b.Read())
}
