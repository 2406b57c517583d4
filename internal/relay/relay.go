// Package relay splices two already-connected streams together.
package relay

import (
	"io"
	"net"

	"golang.org/x/sync/errgroup"
)

// Pipe copies a to b and b to a concurrently, returning once both
// directions have finished (typically because one side closed). A clean
// EOF is not reported as an error; anything else from either direction is.
func Pipe(a, b net.Conn) error {
	var g errgroup.Group
	g.Go(func() error { return copyErr(b, a) })
	g.Go(func() error { return copyErr(a, b) })
	return g.Wait()
}

func copyErr(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}
