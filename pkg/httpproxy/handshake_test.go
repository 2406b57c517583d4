package httpproxy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsadev/simorgh/pkg/address"
	"github.com/parsadev/simorgh/pkg/packet"
)

func testOutboundPacket() packet.Outbound {
	return packet.Outbound{
		NetworkType: packet.NetworkTCP,
		Dest:        address.ServiceAddress{Address: address.NewIPAddress(net.ParseIP("93.184.216.34")), Port: 443},
	}
}

func TestInbound_ConnectTunnel(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	in, err := NewInbound(InboundOption{})
	require.NoError(t, err)

	type result struct {
		dest string
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		pkt, stream, err := in.Handshake(context.Background(), server)
		if err != nil {
			resCh <- result{err: err}
			return
		}
		defer stream.Close()
		resCh <- result{dest: pkt.Dest.String()}
	}()

	_, err = client.Write([]byte("CONNECT example.com:443 HTTP/1.1\r\nHost: example.com:443\r\n\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "200")

	select {
	case r := <-resCh:
		require.NoError(t, r.err)
		assert.Equal(t, "example.com:443", r.dest)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestInbound_PlainRequestReplaysBody(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	in, err := NewInbound(InboundOption{})
	require.NoError(t, err)

	type result struct {
		dest   string
		stream net.Conn
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		pkt, stream, err := in.Handshake(context.Background(), server)
		if err != nil {
			resCh <- result{err: err}
			return
		}
		resCh <- result{dest: pkt.Dest.String(), stream: stream}
	}()

	req := "GET http://example.com/index.html HTTP/1.1\r\nHost: example.com\r\nProxy-Connection: Keep-Alive\r\n\r\n"
	_, err = client.Write([]byte(req))
	require.NoError(t, err)

	var r result
	select {
	case r = <-resCh:
		require.NoError(t, r.err)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	assert.Equal(t, "example.com:80", r.dest)

	replay := make([]byte, len(req)+64)
	n, err := r.stream.Read(replay)
	require.NoError(t, err)
	got := string(replay[:n])
	assert.Contains(t, got, "GET http://example.com/index.html HTTP/1.1")
	assert.NotContains(t, got, "Proxy-Connection")
}

func TestOutbound_ConnectSuccess(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	out, err := NewOutbound(OutboundOption{})
	require.NoError(t, err)

	go func() {
		buf := make([]byte, 4096)
		n, _ := server.Read(buf)
		_ = n
		_, _ = server.Write([]byte("HTTP/1.1 200 Connection established\r\n\r\n"))
	}()

	stream, err := out.Handshake(context.Background(), client, testOutboundPacket())
	require.NoError(t, err)
	assert.NotNil(t, stream)
}

func TestOutbound_NonSuccessStatusFails(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	out, err := NewOutbound(OutboundOption{})
	require.NoError(t, err)

	go func() {
		buf := make([]byte, 4096)
		_, _ = server.Read(buf)
		_, _ = server.Write([]byte("HTTP/1.1 407 Proxy Authentication Required\r\n\r\n"))
	}()

	_, err = out.Handshake(context.Background(), client, testOutboundPacket())
	assert.Error(t, err)
}
