// Package streamutil provides the single reusable stream-overlay primitive
// shared by CachedStream (MIXED peek), the HTTP plain-proxy request replay,
// and the VLESS outbound response strip: "on first read, consume or yield a
// held buffer; thereafter transparent." Writes are always passthrough.
package streamutil

import "net"

// PrimeFunc produces the bytes a OneShot should serve before falling through
// to the wrapped connection. It runs exactly once, lazily, on the first Read.
// Implementations that need nothing from the connection (a pre-held prefix)
// ignore the inner argument; implementations that strip a leading envelope
// off the connection's own bytes (VLESS's response strip) read from inner
// themselves and return the remainder.
type PrimeFunc func(inner net.Conn) ([]byte, error)

// OneShot wraps a net.Conn, serving a one-time held buffer ahead of (or
// carved out of) the wrapped connection's bytes, then becoming pure
// passthrough. Write, Close, and the deadline/address methods are always
// passthrough via embedding.
type OneShot struct {
	net.Conn
	prime   PrimeFunc
	primed  bool
	pending []byte
}

// NewOneShot builds a OneShot around inner using prime to produce the
// held buffer on first Read.
func NewOneShot(inner net.Conn, prime PrimeFunc) *OneShot {
	return &OneShot{Conn: inner, prime: prime}
}

// NewPrefixed builds a OneShot that simply prepends a fixed byte slice ahead
// of inner's own bytes — the CachedStream / HttpPlainStream shape.
func NewPrefixed(inner net.Conn, prefix []byte) *OneShot {
	return NewOneShot(inner, func(net.Conn) ([]byte, error) {
		return prefix, nil
	})
}

func (o *OneShot) Read(p []byte) (int, error) {
	if !o.primed {
		o.primed = true
		buf, err := o.prime(o.Conn)
		if err != nil {
			return 0, err
		}
		o.pending = buf
	}
	if len(o.pending) > 0 {
		n := copy(p, o.pending)
		o.pending = o.pending[n:]
		return n, nil
	}
	return o.Conn.Read(p)
}
