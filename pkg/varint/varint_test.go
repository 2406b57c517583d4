package varint

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 16384, 1 << 32, ^uint64(0)}
	for _, x := range cases {
		buf := Write(nil, x)
		got, err := Read(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, x, got)
		assert.Len(t, buf, Size(x))
	}
}

func TestSize(t *testing.T) {
	assert.Equal(t, 1, Size(0))
	assert.Equal(t, 1, Size(127))
	assert.Equal(t, 2, Size(128))
	assert.Equal(t, MaxLen64, Size(^uint64(0)))
}

func TestRead_Overflow(t *testing.T) {
	buf := append(bytes.Repeat([]byte{0xff}, MaxLen64-1), 0x02)
	_, err := Read(bytes.NewReader(buf))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestReadFrom_PlainReader(t *testing.T) {
	buf := Write(nil, 1<<20)
	// io.MultiReader hides ReadByte, so ReadFrom must wrap it itself.
	got, err := ReadFrom(io.MultiReader(bytes.NewReader(buf)))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<20), got)
}
