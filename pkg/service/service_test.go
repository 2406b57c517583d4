package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsadev/simorgh/pkg/address"
	"github.com/parsadev/simorgh/pkg/httpproxy"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

func TestInboundService_HTTPKindDispatchesToDelegate(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	svc, err := NewHTTPInbound(httpproxy.InboundOption{})
	require.NoError(t, err)
	assert.Equal(t, InboundHTTP, svc.Kind())

	type result struct {
		dest string
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		pkt, stream, err := svc.Handshake(context.Background(), server)
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

func TestOutboundService_DirectDialsListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptedCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			acceptedCh <- conn
		}
	}()

	tcpAddr := ln.Addr().(*net.TCPAddr)
	dest := address.ServiceAddress{Address: address.NewIPAddress(tcpAddr.IP), Port: uint16(tcpAddr.Port)}

	svc := NewDirectOutbound()
	assert.Equal(t, OutboundDirect, svc.Kind())

	conn, err := svc.Connect(context.Background(), nil, packet.Outbound{NetworkType: packet.NetworkTCP, Dest: dest})
	require.NoError(t, err)
	defer conn.Close()

	accepted := <-acceptedCh
	defer accepted.Close()
}

func TestOutboundService_NetworkTypeRejectedBeforeDispatch(t *testing.T) {
	svc, err := NewHTTPOutbound(httpproxy.OutboundOption{})
	require.NoError(t, err)
	assert.Equal(t, OutboundHTTP, svc.Kind())

	dest := address.ServiceAddress{Address: address.NewIPAddress(net.ParseIP("1.1.1.1")), Port: 53}
	_, err = svc.Connect(context.Background(), nil, packet.Outbound{NetworkType: packet.NetworkUDP, Dest: dest})
	require.Error(t, err)

	var svcErr *svcerr.Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, svcerr.KindInvalidType, svcErr.Kind)
}
