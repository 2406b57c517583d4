package socks

import "errors"

var (
	// Version / framing
	errInvalidVersion     = errors.New("socks: invalid version byte")
	errUnableToReadHeader = errors.New("socks: unable to read handshake header")

	// Command
	errUnsupportedCommand = errors.New("socks: unsupported command")

	// Address
	errInvalidAddress = errors.New("socks: invalid address")

	// Auth negotiation
	errUnsupportedAuthMethod = errors.New("socks: no acceptable authentication method")
	errUnsupportedAuthType   = errors.New("socks: auth type not valid for this version")
	errUnknownAuth           = errors.New("socks: username/password authentication rejected")
	errAuthMismatch          = errors.New("socks: offered credentials do not match server policy")

	// State machine
	errHandshakeFinished = errors.New("socks: handshake already finished")
	errUnsupportedFrame  = errors.New("socks: unexpected byte for current state")

	// Reply / status
	errInvalidStatus = errors.New("socks: server returned non-success status")

	// Sending replies
	errUnableToSendReply = errors.New("socks: unable to send reply")
)
