package vless

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/parsadev/simorgh/pkg/address"
	"github.com/parsadev/simorgh/pkg/ioctx"
	"github.com/parsadev/simorgh/pkg/varint"
)

// Version is the only protocol version this package speaks.
const Version byte = 0

// Command identifies the requested operation.
const (
	CommandTCP byte = 1
	CommandUDP byte = 2
	CommandMux byte = 3
)

const addonsTag byte = 0x0A

// Addons carries the optional per-request extensions envelope. A zero value
// serializes to an empty envelope (addons_len == 0), matching a bare request
// that carries no flow or seed.
type Addons struct {
	Flow string
	Seed string
}

func (a Addons) encode() []byte {
	if a.Flow == "" && a.Seed == "" {
		return nil
	}
	buf := []byte{addonsTag}
	buf = varint.Write(buf, uint64(len(a.Flow)))
	buf = append(buf, a.Flow...)
	if a.Seed != "" {
		buf = varint.Write(buf, uint64(len(a.Seed)))
		buf = append(buf, a.Seed...)
	}
	return buf
}

// parseAddons tolerates truncation only of the length varints themselves: a
// blob that ends partway through the flow-length varint, or partway through
// the seed fields (no seed-length varint at all, following a complete
// flow), is treated as if whatever comes after were never present. Once a
// length varint has been read successfully, a short read on the payload
// bytes it declares is a hard error — the declared length and the bytes
// actually present have come apart, which a truncated varint alone does not
// imply.
func parseAddons(blob []byte) (Addons, error) {
	if len(blob) == 0 {
		return Addons{}, nil
	}
	r := bytes.NewReader(blob)
	tag, err := r.ReadByte()
	if err != nil {
		return Addons{}, nil
	}
	if tag != addonsTag {
		return Addons{}, errInvalidHeader
	}

	flowLen, err := varint.Read(r)
	if err != nil {
		return Addons{}, nil
	}
	flow := make([]byte, flowLen)
	if _, err := io.ReadFull(r, flow); err != nil {
		return Addons{}, err
	}

	seedLen, err := varint.Read(r)
	if err != nil {
		return Addons{Flow: string(flow)}, nil
	}
	seed := make([]byte, seedLen)
	if _, err := io.ReadFull(r, seed); err != nil {
		return Addons{}, err
	}
	return Addons{Flow: string(flow), Seed: string(seed)}, nil
}

// Request is one VLESS request header: version, user id, addons, command,
// and — for TCP/UDP — the destination. MUX carries no destination.
type Request struct {
	UUID    uuid.UUID
	Addons  Addons
	Command byte
	Dest    *address.ServiceAddress
}

// Bytes serializes the request header, including the destination for
// TCP/UDP commands.
func (r Request) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(Version)
	buf.Write(r.UUID[:])

	addonsBlob := r.Addons.encode()
	if len(addonsBlob) > 255 {
		return nil, errInvalidHeader
	}
	buf.WriteByte(byte(len(addonsBlob)))
	buf.Write(addonsBlob)

	buf.WriteByte(r.Command)

	switch r.Command {
	case CommandTCP, CommandUDP:
		if r.Dest == nil {
			return nil, errNoDestination
		}
		buf.Write(address.PutPort(nil, r.Dest.Port))
		if err := address.Write(&buf, r.Dest.Address, address.VlessDialect); err != nil {
			return nil, err
		}
	case CommandMux:
	default:
		return nil, fmt.Errorf("%w: %d", errInvalidCommand, r.Command)
	}
	return buf.Bytes(), nil
}

// ReadRequest parses one request header from r.
func ReadRequest(ctx context.Context, r io.Reader) (Request, error) {
	verByte, err := ioctx.ReadByte(ctx, r)
	if err != nil {
		return Request{}, err
	}
	if verByte != Version {
		return Request{}, fmt.Errorf("%w: %d", errInvalidVersion, verByte)
	}

	var idBytes [16]byte
	if _, err := ioctx.ReadFull(ctx, r, idBytes[:]); err != nil {
		return Request{}, err
	}

	addonsLen, err := ioctx.ReadByte(ctx, r)
	if err != nil {
		return Request{}, err
	}
	var addonsBlob []byte
	if addonsLen > 0 {
		addonsBlob = make([]byte, addonsLen)
		if _, err := ioctx.ReadFull(ctx, r, addonsBlob); err != nil {
			return Request{}, err
		}
	}
	addons, err := parseAddons(addonsBlob)
	if err != nil {
		return Request{}, err
	}

	cmd, err := ioctx.ReadByte(ctx, r)
	if err != nil {
		return Request{}, err
	}

	req := Request{UUID: uuid.UUID(idBytes), Addons: addons, Command: cmd}
	switch cmd {
	case CommandTCP, CommandUDP:
		port, err := address.ReadPort(ctx, r)
		if err != nil {
			return Request{}, err
		}
		addr, err := address.Read(ctx, r, address.VlessDialect)
		if err != nil {
			return Request{}, err
		}
		dest := address.ServiceAddress{Address: addr, Port: port}
		req.Dest = &dest
	case CommandMux:
	default:
		return Request{}, fmt.Errorf("%w: %d", errInvalidCommand, cmd)
	}
	return req, nil
}

// Response is the server's reply envelope: version plus an optional addons
// blob, with no further payload, sent once before the connection becomes a
// raw duplex stream.
type Response struct {
	Addons Addons
}

// Bytes serializes the response envelope.
func (r Response) Bytes() []byte {
	blob := r.Addons.encode()
	buf := make([]byte, 0, 2+len(blob))
	buf = append(buf, Version, byte(len(blob)))
	return append(buf, blob...)
}

// EnvelopeLen inspects a buffer already read from the outbound stream and
// reports how many leading bytes belong to the response envelope. It never
// reads further: a buffer shorter than the header, or an addons_len claiming
// more bytes than are present, is an error rather than a prompt to read more
// — matching the no-accumulation behavior of a short first read.
func EnvelopeLen(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, errUnknownVersion
	}
	if buf[0] != Version {
		return 0, fmt.Errorf("%w: %d", errInvalidVersion, buf[0])
	}
	addonsLen := int(buf[1])
	if addonsLen > len(buf)-2 {
		return 0, errInvalidHeader
	}
	return 2 + addonsLen, nil
}
