// Package httpd is a minimal HTTP/1.1 layer: a streaming request parser
// over a caller-owned byte buffer, a TCP listener with one goroutine per
// connection, and single-send response helpers. It exists because the
// store's wire surface is small enough that the full net/http machinery
// would dwarf it; only the exact subset the image server speaks is
// implemented.
package httpd

import (
	"bytes"
	"fmt"
	"strconv"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

// Protocol framing.
const (
	LineDelim   = "\r\n"
	HeaderEnd   = "\r\n\r\n"
	KeyValDelim = ": "
	protocolID  = "HTTP/1.1"
)

// Parser limits.
const (
	// MaxHeaders is the maximum number of header lines per request.
	MaxHeaders = 32

	// MaxHeaderSize is the receive buffer size for the request line plus
	// headers. A request whose headers do not fit is dropped.
	MaxHeaderSize = 2048
)

// Header is one parsed header line. Key and Value are views into the
// receive buffer and are only valid while the buffer is.
type Header struct {
	Key   []byte
	Value []byte
}

// Message is a parsed HTTP request. Every field is a view into the receive
// buffer; handlers must not retain them past the request's lifetime.
type Message struct {
	Method  []byte
	URI     []byte
	Headers []Header
	Body    []byte
}

// HeaderValue returns the value of the first header whose key equals key
// byte for byte, or nil. Matching is case-sensitive; requests that spell
// Content-Length differently are treated as having none (a known gap
// against RFC 9110's case-insensitive field names).
func (m *Message) HeaderValue(key string) []byte {
	for _, h := range m.Headers {
		if string(h.Key) == key {
			return h.Value
		}
	}
	return nil
}

// nextToken splits stream at the first occurrence of delim, returning the
// token before it and the remainder after it. ok is false if delim does
// not occur.
func nextToken(stream []byte, delim string) (token, rest []byte, ok bool) {
	i := bytes.Index(stream, []byte(delim))
	if i < 0 {
		return nil, nil, false
	}
	return stream[:i], stream[i+len(delim):], true
}

// parseHeaders consumes header lines up to and including the blank line,
// filling msg.Headers. It returns the remainder (the body prefix) or an
// error if there are too many headers or a line has no key/value delimiter.
func parseHeaders(stream []byte, msg *Message) ([]byte, error) {
	msg.Headers = msg.Headers[:0]
	for !bytes.HasPrefix(stream, []byte(LineDelim)) {
		if len(msg.Headers) >= MaxHeaders {
			return nil, fmt.Errorf("%w: more than %d headers", imgfs.ErrRuntime, MaxHeaders)
		}
		key, rest, ok := nextToken(stream, KeyValDelim)
		if !ok {
			return nil, fmt.Errorf("%w: malformed header line", imgfs.ErrRuntime)
		}
		value, rest, ok := nextToken(rest, LineDelim)
		if !ok {
			return nil, fmt.Errorf("%w: unterminated header line", imgfs.ErrRuntime)
		}
		msg.Headers = append(msg.Headers, Header{Key: key, Value: value})
		stream = rest
	}
	return stream[len(LineDelim):], nil
}

// ParseMessage parses the byte prefix of an HTTP/1.1 request. It returns
// complete=false while the request line and headers have not fully arrived
// or a declared body is still short, a negative-path error for requests
// that are malformed beyond their header terminator, and complete=true once
// the full message is in stream. contentLen reports the declared
// Content-Length as soon as the headers can be read, so callers can size
// their receive buffer for the body.
func ParseMessage(stream []byte, msg *Message) (complete bool, contentLen int, err error) {
	if !bytes.Contains(stream, []byte(HeaderEnd)) {
		return false, 0, nil
	}

	method, rest, ok := nextToken(stream, " ")
	if !ok {
		return false, 0, nil
	}
	uri, rest, ok := nextToken(rest, " ")
	if !ok {
		return false, 0, nil
	}
	protocol, rest, ok := nextToken(rest, LineDelim)
	if !ok || !MatchVerb(protocol, protocolID) {
		return false, 0, nil
	}
	msg.Method = method
	msg.URI = uri

	body, err := parseHeaders(rest, msg)
	if err != nil {
		return false, 0, err
	}

	clValue := msg.HeaderValue("Content-Length")
	if clValue == nil || MatchVerb(clValue, "0") {
		msg.Body = body[:0]
		return true, 0, nil
	}
	contentLen, err = strconv.Atoi(string(clValue))
	if err != nil || contentLen <= 0 {
		return false, 0, fmt.Errorf("%w: bad Content-Length %q", imgfs.ErrRuntime, clValue)
	}

	if len(body) < contentLen {
		msg.Body = body
		return false, contentLen, nil
	}
	msg.Body = body[:contentLen]
	return true, contentLen, nil
}

// MatchURI reports whether the message URI starts with target.
func MatchURI(msg *Message, target string) bool {
	return bytes.HasPrefix(msg.URI, []byte(target))
}

// MatchVerb reports whether token equals verb exactly.
func MatchVerb(token []byte, verb string) bool {
	return string(token) == verb
}

// GetVar extracts the query parameter name from a request URI: the value
// between "name=" and the next '&' or the end of the URI, with "name="
// directly after the '?' separator or an '&'. It returns ("", nil) when
// the parameter is absent and ErrRuntime when the value exceeds maxLen.
func GetVar(uri []byte, name string, maxLen int) (string, error) {
	pattern := []byte(name + "=")
	start := -1
	for from := 0; start < 0; {
		i := bytes.Index(uri[from:], pattern)
		if i < 0 {
			return "", nil
		}
		i += from
		// the match must sit right of a '?' or '&', with the '?' already seen
		if i > 0 && (uri[i-1] == '?' || uri[i-1] == '&') && bytes.Contains(uri[:i], []byte("?")) {
			start = i
		}
		from = i + 1
	}

	value := uri[start+len(pattern):]
	if i := bytes.IndexByte(value, '&'); i >= 0 {
		value = value[:i]
	}
	if len(value) > maxLen {
		return "", fmt.Errorf("%w: value of %q longer than %d", imgfs.ErrRuntime, name, maxLen)
	}
	return string(value), nil
}
