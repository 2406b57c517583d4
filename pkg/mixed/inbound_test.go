package mixed

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsadev/simorgh/pkg/address"
	"github.com/parsadev/simorgh/pkg/socks"
)

func TestHandshake_DispatchesToSocksOnVersionByte(t *testing.T) {
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

	dest := address.ServiceAddress{Address: address.NewIPAddress(net.ParseIP("1.2.3.4")), Port: 80}
	req, err := socks.NewRequest(socks.Version5, socks.CommandConnect, dest, socks.Auth{Kind: socks.AuthNoAuth})
	require.NoError(t, err)
	ch := socks.NewClientHandshake(client)
	reply, err := ch.Negotiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, socks.StatusSucceeded, reply.Status)

	select {
	case r := <-resCh:
		require.NoError(t, r.err)
		assert.Equal(t, "1.2.3.4:80", r.dest)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestHandshake_DispatchesToHTTPOnOtherByte(t *testing.T) {
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

func TestNewInbound_SharesAuthAcrossDelegates(t *testing.T) {
	in, err := NewInbound(InboundOption{Auth: []AuthOption{{User: "alice", Pass: "secret"}}})
	require.NoError(t, err)
	assert.NotNil(t, in.socks)
	assert.NotNil(t, in.http)
}
