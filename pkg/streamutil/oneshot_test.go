package streamutil

import (
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrefixed_DrainsThenPassesThrough(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		_, _ = client.Write([]byte("world"))
	}()

	stream := NewPrefixed(server, []byte("hello-"))
	buf := make([]byte, 6)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello-", string(buf[:n]))

	buf2 := make([]byte, 5)
	n2, err := io.ReadFull(stream, buf2)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf2[:n2]))
}

func TestNewPrefixed_EmptyPrefixFallsThroughImmediately(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		_, _ = client.Write([]byte("abc"))
	}()

	stream := NewPrefixed(server, nil)
	buf := make([]byte, 3)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))
}

func TestOneShot_PrimeRunsOnceAndCanError(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	boom := errors.New("boom")
	calls := 0
	stream := NewOneShot(server, func(net.Conn) ([]byte, error) {
		calls++
		return nil, boom
	})

	_, err := stream.Read(make([]byte, 1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
