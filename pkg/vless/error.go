package vless

import "errors"

var (
	errInvalidVersion = errors.New("vless: unexpected version byte")
	errUnknownVersion = errors.New("vless: response shorter than the envelope header")
	errInvalidHeader  = errors.New("vless: addons length exceeds buffer")
	errInvalidCommand = errors.New("vless: unsupported command")
	errInvalidUUID    = errors.New("vless: uuid not recognized")
	errNoDestination  = errors.New("vless: non-MUX command requires a destination")
)
