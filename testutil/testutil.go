// Package testutil provides test helpers for ImgFS testing: deterministic
// JPEG fixtures and a raw HTTP/1.1 response reader.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// MakeJPEG returns a deterministic w x h JPEG. seed varies the pixel
// pattern so that different seeds produce different content hashes.
func MakeJPEG(t *testing.T, w, h, seed int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*7 + seed) % 256),
				G: uint8((y*13 + seed*3) % 256),
				B: uint8((x + y + seed*5) % 256),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode fixture JPEG: %v", err)
	}
	return buf.Bytes()
}

// WriteJPEG writes a fixture JPEG into dir and returns its path.
func WriteJPEG(t *testing.T, dir, name string, w, h, seed int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, MakeJPEG(t, w, h, seed), 0o644); err != nil {
		t.Fatalf("write fixture JPEG: %v", err)
	}
	return path
}

// Response is a decoded raw HTTP response.
type Response struct {
	Status  string
	Headers map[string]string
	Body    []byte
}

// ReadResponse reads exactly one HTTP/1.1 response from r, using the
// Content-Length header to bound the body.
func ReadResponse(t *testing.T, r io.Reader) *Response {
	t.Helper()

	var head bytes.Buffer
	one := make([]byte, 1)
	for !bytes.HasSuffix(head.Bytes(), []byte("\r\n\r\n")) {
		if _, err := io.ReadFull(r, one); err != nil {
			t.Fatalf("read response head: %v (got %q)", err, head.String())
		}
		head.Write(one)
	}

	lines := strings.Split(strings.TrimSuffix(head.String(), "\r\n\r\n"), "\r\n")
	resp := &Response{Headers: make(map[string]string)}
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "HTTP/1.1 ") {
		t.Fatalf("bad status line %q", lines)
	}
	resp.Status = strings.TrimPrefix(lines[0], "HTTP/1.1 ")
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			t.Fatalf("bad header line %q", line)
		}
		resp.Headers[key] = value
	}

	length, err := strconv.Atoi(resp.Headers["Content-Length"])
	if err != nil {
		t.Fatalf("bad Content-Length %q", resp.Headers["Content-Length"])
	}
	resp.Body = make([]byte, length)
	if _, err := io.ReadFull(r, resp.Body); err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp
}

// Request formats a raw HTTP/1.1 request with an optional body.
func Request(method, uri string, headers map[string]string, body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", method, uri)
	for key, value := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}
	if len(body) > 0 {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes()
}
