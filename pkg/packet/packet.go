// Package packet defines the network-type and packet value types shared by
// every inbound/outbound protocol and the service façade.
package packet

import "github.com/parsadev/simorgh/pkg/address"

// NetworkType is the transport a handshake recovered for its destination.
type NetworkType int

const (
	NetworkTCP NetworkType = iota
	NetworkUDP
)

func (n NetworkType) String() string {
	if n == NetworkUDP {
		return "udp"
	}
	return "tcp"
}

// Inbound is produced exactly once per successful inbound handshake: the
// recovered destination, network type, and an opaque provenance string
// (e.g. the VLESS user name that authenticated the connection).
type Inbound struct {
	NetworkType NetworkType
	Dest        address.ServiceAddress
	Detail      string
}

// Outbound is what the forwarder hands to an outbound service once it has
// an Inbound's destination in hand.
type Outbound struct {
	NetworkType NetworkType
	Dest        address.ServiceAddress
}
