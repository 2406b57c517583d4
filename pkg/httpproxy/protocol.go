package httpproxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/parsadev/simorgh/pkg/ioctx"
)

// MaxHeaders and MaxHeaderBytes are the default header-count and
// total-header-byte budgets enforced while parsing.
const (
	MaxHeaders     = 64
	MaxHeaderBytes = 65535
)

// Field is one header line, order-preserving (unlike a map, so
// re-serialization is byte-stable and duplicate keys survive).
type Field struct {
	Key   string
	Value string
}

// Header is an ordered list of header fields.
type Header []Field

// Get returns the first value for key (case-insensitively), if any.
func (h Header) Get(key string) (string, bool) {
	ck := CanonicalKey(key)
	for _, f := range h {
		if CanonicalKey(f.Key) == ck {
			return f.Value, true
		}
	}
	return "", false
}

// Add appends a field.
func (h *Header) Add(key, value string) {
	*h = append(*h, Field{Key: key, Value: value})
}

// CanonicalKey uppercases the first letter and every letter following a
// '-', lowercasing everything else — net/textproto's MIME header
// canonicalization, which implements exactly this rule.
func CanonicalKey(key string) string {
	return textproto.CanonicalMIMEHeaderKey(key)
}

// Request is a parsed HTTP start-line plus headers.
type Request struct {
	Method  string
	Target  string
	Version string
	Header  Header
}

// Response is a parsed HTTP status-line plus headers.
type Response struct {
	Version string
	Status  int
	Reason  string
	Header  Header
}

var versionTokens = map[string]string{
	"HTTP/0.9": "HTTP/0.9",
	"HTTP/1.0": "HTTP/1.0",
	"HTTP/1.1": "HTTP/1.1",
	"HTTP/2.0": "HTTP/2.0",
	"HTTP/3.0": "HTTP/3.0",
}

func parseVersion(tok string) (string, error) {
	if v, ok := versionTokens[tok]; ok {
		return v, nil
	}
	return "", errInvalidVersion
}

// ReadRequest parses a request line and headers from r one byte at a time,
// so no byte belonging to the payload that follows the blank line is ever
// consumed ahead of the caller, and enforcing the given header-count and
// total-header-byte budgets.
func ReadRequest(ctx context.Context, r io.Reader, maxHeaders, maxHeaderBytes int) (Request, error) {
	line, err := readLine(ctx, r)
	if err != nil {
		return Request{}, err
	}
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return Request{}, fmt.Errorf("%w: start line %q", errInvalidLine, line)
	}
	version, err := parseVersion(parts[2])
	if err != nil {
		return Request{}, err
	}
	header, err := readHeaders(ctx, r, maxHeaders, maxHeaderBytes)
	if err != nil {
		return Request{}, err
	}
	return Request{Method: parts[0], Target: parts[1], Version: version, Header: header}, nil
}

// ReadResponse parses a status line and headers from r, byte at a time.
func ReadResponse(ctx context.Context, r io.Reader, maxHeaders, maxHeaderBytes int) (Response, error) {
	line, err := readLine(ctx, r)
	if err != nil {
		return Response{}, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		return Response{}, fmt.Errorf("%w: status line %q", errInvalidLine, line)
	}
	version, err := parseVersion(parts[0])
	if err != nil {
		return Response{}, err
	}
	var status int
	if _, err := fmt.Sscanf(parts[1], "%d", &status); err != nil {
		return Response{}, fmt.Errorf("%w: status code %q", errInvalidStatus, parts[1])
	}
	header, err := readHeaders(ctx, r, maxHeaders, maxHeaderBytes)
	if err != nil {
		return Response{}, err
	}
	return Response{Version: version, Status: status, Reason: parts[2], Header: header}, nil
}

// readLine reads up to and including the next "\r\n" or "\n", one byte at a
// time via pkg/ioctx so every read is a cancellation suspension point,
// returning the line with the terminator trimmed.
func readLine(ctx context.Context, r io.Reader) (string, error) {
	var line []byte
	var b [1]byte
	for {
		if _, err := ioctx.Read(ctx, r, b[:]); err != nil {
			return "", err
		}
		if b[0] == '\n' {
			break
		}
		line = append(line, b[0])
	}
	return strings.TrimRight(string(line), "\r"), nil
}

func readHeaders(ctx context.Context, r io.Reader, maxHeaders, maxHeaderBytes int) (Header, error) {
	var h Header
	for {
		line, err := readLine(ctx, r)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return h, nil
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("%w: header line %q", errInvalidLine, line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" || value == "" {
			continue
		}
		maxHeaders--
		maxHeaderBytes -= len(key) + len(value)
		if maxHeaders < 0 || maxHeaderBytes < 0 {
			return nil, errHeaderTooLarge
		}
		h.Add(key, value)
	}
}

// WriteRequest formats req as method SP target SP version CRLF headers CRLF.
func WriteRequest(req Request) []byte {
	n := len(req.Method) + len(req.Target) + len(req.Version) + 4
	for _, f := range req.Header {
		n += len(f.Key) + len(f.Value) + 4
	}
	buf := make([]byte, 0, n+2)
	buf = append(buf, req.Method...)
	buf = append(buf, ' ')
	buf = append(buf, req.Target...)
	buf = append(buf, ' ')
	buf = append(buf, req.Version...)
	buf = append(buf, '\r', '\n')
	buf = appendHeaders(buf, req.Header)
	return buf
}

// WriteResponse formats resp as version SP status SP reason CRLF headers
// CRLF. An empty Reason falls back to the canonical reason phrase for
// Status; if none exists, an error is returned per spec.md §4.5.
func WriteResponse(resp Response) ([]byte, error) {
	reason := resp.Reason
	if reason == "" {
		reason = http.StatusText(resp.Status)
		if reason == "" {
			return nil, errInvalidStatus
		}
	}
	n := len(resp.Version) + len(reason) + 8
	for _, f := range resp.Header {
		n += len(f.Key) + len(f.Value) + 4
	}
	buf := make([]byte, 0, n+2)
	buf = append(buf, resp.Version...)
	buf = append(buf, ' ')
	buf = append(buf, fmt.Sprintf("%d", resp.Status)...)
	buf = append(buf, ' ')
	buf = append(buf, reason...)
	buf = append(buf, '\r', '\n')
	buf = appendHeaders(buf, resp.Header)
	return buf, nil
}

func appendHeaders(buf []byte, h Header) []byte {
	for _, f := range h {
		buf = append(buf, CanonicalKey(f.Key)...)
		buf = append(buf, ':', ' ')
		buf = append(buf, f.Value...)
		buf = append(buf, '\r', '\n')
	}
	return append(buf, '\r', '\n')
}
