package httpproxy

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/parsadev/simorgh/pkg/address"
	"github.com/parsadev/simorgh/pkg/ioctx"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/streamutil"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

var hopByHop = map[string]bool{
	"Proxy-Connection":    true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailers":            true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// Inbound is the HTTP CONNECT / plain-proxy inbound adapter.
type Inbound struct {
	auth [][]byte // "user:pass" pairs; empty disables auth
}

// NewInbound builds an Inbound from its "user:pass" pair list.
func NewInbound(opt InboundOption) (*Inbound, error) {
	in := &Inbound{}
	for _, a := range opt.Auth {
		in.auth = append(in.auth, []byte(a.User+":"+a.Pass))
	}
	return in, nil
}

func (in *Inbound) verifyAuth(h Header) bool {
	if len(in.auth) == 0 {
		return true
	}
	v, ok := h.Get("Proxy-Authorization")
	if !ok || !strings.HasPrefix(v, "Basic ") {
		return false
	}
	token := strings.TrimPrefix(v, "Basic ")
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return false
		}
	}
	for _, want := range in.auth {
		if string(decoded) == string(want) {
			return true
		}
	}
	return false
}

// Handshake parses one request within the header budget and returns the
// recovered packet plus the post-handshake duplex stream: for CONNECT, the
// raw tunnel; for a plain request, the reconstructed request replayed ahead
// of the raw connection (see streamutil.OneShot).
func (in *Inbound) Handshake(ctx context.Context, conn net.Conn) (packet.Inbound, net.Conn, error) {
	req, err := ReadRequest(ctx, conn, MaxHeaders, MaxHeaderBytes)
	if err != nil {
		return packet.Inbound{}, nil, svcerr.Handshake("http", err)
	}

	if !in.verifyAuth(req.Header) {
		_ = writeStatus(ctx, conn, req.Version, 407, "Proxy Authentication Required")
		return packet.Inbound{}, nil, svcerr.Handshake("http", errInvalidAuth)
	}

	if strings.EqualFold(req.Method, "CONNECT") {
		host, port, err := splitAuthority(req.Target, 80)
		if err != nil {
			return packet.Inbound{}, nil, svcerr.Handshake("http", err)
		}
		if _, err := ioctx.Write(ctx, conn, []byte(req.Version+" 200 Connection established\r\n\r\n")); err != nil {
			return packet.Inbound{}, nil, svcerr.IO(err)
		}
		dest, derr := destAddress(host, port)
		if derr != nil {
			return packet.Inbound{}, nil, svcerr.Address(derr)
		}
		stream := streamutil.NewPrefixed(conn, nil)
		return packet.Inbound{NetworkType: packet.NetworkTCP, Dest: dest}, stream, nil
	}

	u, err := url.ParseRequestURI(req.Target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		_ = writeStatus(ctx, conn, req.Version, 400, "Bad Request")
		return packet.Inbound{}, nil, svcerr.Handshake("http", errInvalidHost)
	}
	host, port, err := splitAuthority(u.Host, 80)
	if err != nil {
		return packet.Inbound{}, nil, svcerr.Handshake("http", err)
	}
	dest, derr := destAddress(host, port)
	if derr != nil {
		return packet.Inbound{}, nil, svcerr.Address(derr)
	}

	stripped := stripHopByHop(req.Header)
	replay := WriteRequest(Request{Method: req.Method, Target: req.Target, Version: req.Version, Header: stripped})
	stream := streamutil.NewPrefixed(conn, replay)
	return packet.Inbound{NetworkType: packet.NetworkTCP, Dest: dest}, stream, nil
}

func writeStatus(ctx context.Context, conn net.Conn, version string, code int, reason string) error {
	resp, err := WriteResponse(Response{Version: version, Status: code, Reason: reason})
	if err != nil {
		return err
	}
	_, err = ioctx.Write(ctx, conn, resp)
	return err
}

func stripHopByHop(h Header) Header {
	drop := map[string]bool{}
	for k := range hopByHop {
		drop[k] = true
	}
	if v, ok := h.Get("Connection"); ok {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				drop[CanonicalKey(name)] = true
			}
		}
	}
	var out Header
	for _, f := range h {
		if !drop[CanonicalKey(f.Key)] {
			out.Add(f.Key, f.Value)
		}
	}
	return out
}

func splitAuthority(authority string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(authority)
	if err != nil {
		return authority, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad port %q", errInvalidHost, portStr)
	}
	return host, port, nil
}

func destAddress(host string, port int) (address.ServiceAddress, error) {
	if host == "" {
		return address.ServiceAddress{}, errInvalidHost
	}
	if ip := net.ParseIP(host); ip != nil {
		return address.ServiceAddress{Address: address.NewIPAddress(ip), Port: uint16(port)}, nil
	}
	addr, err := address.NewDomainAddress(host)
	if err != nil {
		return address.ServiceAddress{}, err
	}
	return address.ServiceAddress{Address: addr, Port: uint16(port)}, nil
}
