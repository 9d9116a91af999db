package httpd

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/klauspost/compress/gzip"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

// Response status lines.
const (
	StatusOK       = "200 OK"
	StatusFound    = "302 Found"
	StatusNotFound = "404 Not Found"
	StatusError    = "500 Internal Server Error"
)

// Reply formats and sends one HTTP/1.1 response in a single Write call:
// status line, caller headers (each already CRLF-terminated), a
// Content-Length header, the blank line and the body.
func Reply(conn net.Conn, status, headers string, body []byte) error {
	var buf bytes.Buffer
	buf.Grow(len(protocolID) + 1 + len(status) + len(LineDelim) + len(headers) + 32 + len(body))
	buf.WriteString(protocolID)
	buf.WriteByte(' ')
	buf.WriteString(status)
	buf.WriteString(LineDelim)
	buf.WriteString(headers)
	buf.WriteString("Content-Length" + KeyValDelim)
	buf.WriteString(strconv.Itoa(len(body)))
	buf.WriteString(HeaderEnd)
	buf.Write(body)

	n, err := conn.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("%w: send response: %v", imgfs.ErrIO, err)
	}
	if n != buf.Len() {
		return fmt.Errorf("%w: short send: %d of %d bytes", imgfs.ErrIO, n, buf.Len())
	}
	return nil
}

// AcceptsGzip reports whether the request advertises gzip support.
func AcceptsGzip(msg *Message) bool {
	return msg != nil && bytes.Contains(msg.HeaderValue("Accept-Encoding"), []byte("gzip"))
}

// Compress gzip-encodes body at the default level.
func Compress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, fmt.Errorf("%w: gzip body: %v", imgfs.ErrRuntime, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: gzip body: %v", imgfs.ErrRuntime, err)
	}
	return buf.Bytes(), nil
}

// ReplyEncoded sends body with the given Content-Type, gzip-compressing it
// when the request allows. Intended for text payloads; JPEG blobs gain
// nothing from a second entropy coder and go through Reply directly.
func ReplyEncoded(conn net.Conn, msg *Message, status, contentType string, body []byte) error {
	headers := "Content-Type" + KeyValDelim + contentType + LineDelim
	if AcceptsGzip(msg) {
		compressed, err := Compress(body)
		if err != nil {
			return err
		}
		body = compressed
		headers += "Content-Encoding" + KeyValDelim + "gzip" + LineDelim
	}
	return Reply(conn, status, headers, body)
}

// ServeFile reads path and serves it as HTML. A missing or unreadable file
// produces an empty 404 rather than an error.
func ServeFile(conn net.Conn, path string, msg *Message) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return Reply(conn, StatusNotFound, "", nil)
	}
	return ReplyEncoded(conn, msg, StatusOK, "text/html; charset=utf-8", content)
}
