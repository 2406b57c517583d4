package ioctx

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Basic(t *testing.T) {
	r := bytes.NewReader([]byte("hello"))
	buf := make([]byte, 5)
	n, err := Read(context.Background(), r, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestReadByte(t *testing.T) {
	r := bytes.NewReader([]byte{0x2a})
	b, err := ReadByte(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, byte(0x2a), b)
}

func TestReadFull(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2, 3, 4})
	buf := make([]byte, 4)
	n, err := ReadFull(context.Background(), r, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestRead_ContextCanceledBeforeData(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := make([]byte, 1)
	_, err := Read(ctx, server, buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrite_ContextDeadlineExceeded(t *testing.T) {
	server, _ := net.Pipe()
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	time.Sleep(5 * time.Millisecond)
	_, err := Write(ctx, server, []byte("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
