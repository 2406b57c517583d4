package httpproxy

import "errors"

var (
	errInvalidLine        = errors.New("httpproxy: malformed start line or header line")
	errInvalidVersion     = errors.New("httpproxy: unrecognized HTTP version token")
	errInvalidHost        = errors.New("httpproxy: request missing host/authority")
	errInvalidAuth        = errors.New("httpproxy: proxy authentication failed")
	errInvalidStatus      = errors.New("httpproxy: unrecognized status line")
	errHeaderTooLarge     = errors.New("httpproxy: header count or byte budget exceeded")
	errInvalidStatusCode  = errors.New("httpproxy: non-success status from upstream")
	errUnsupportedNetwork = errors.New("httpproxy: protocol cannot carry this network type")
)
