package httpd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

// Callback handles one complete request on a connection. A non-nil error
// closes the connection; replying to the client (including error replies)
// is the callback's job.
type Callback func(msg *Message, conn net.Conn) error

// Server owns the passive socket and dispatches accepted connections to
// per-connection goroutines.
type Server struct {
	ln net.Listener
	cb Callback
}

// Listen binds an IPv4 listener on every interface and returns the server.
// Pass port 0 to let the OS pick one (Addr reports the choice).
func Listen(port uint16, cb Callback) (*Server, error) {
	ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: listen on port %d: %v", imgfs.ErrIO, port, err)
	}
	return &Server{ln: ln, cb: cb}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Receive accepts one connection and hands it to a new goroutine, then
// returns immediately. Accept failure (including a closed listener) is
// returned to the caller, which is the accept loop's signal to stop.
func (s *Server) Receive() error {
	conn, err := s.ln.Accept()
	if err != nil {
		return fmt.Errorf("%w: accept: %v", imgfs.ErrIO, err)
	}
	go s.handleConnection(conn)
	return nil
}

// Close shuts the passive socket. Connections already handed off finish on
// their own.
func (s *Server) Close() error {
	if err := s.ln.Close(); err != nil {
		return fmt.Errorf("%w: close listener: %v", imgfs.ErrIO, err)
	}
	return nil
}

// handleConnection reads requests off one connection until the peer closes
// it or an error ends it. The receive buffer starts at MaxHeaderSize and
// grows exactly once per message, to MaxHeaderSize plus the declared body
// length; after each dispatched message it is reset for connection reuse.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, MaxHeaderSize)
	read := 0
	extended := false

	for {
		var msg Message
		complete, contentLen, err := ParseMessage(buf[:read], &msg)
		if err != nil {
			log.Printf("httpd: parse from %s: %v", conn.RemoteAddr(), err)
			return
		}

		if complete {
			if err := s.cb(&msg, conn); err != nil {
				log.Printf("httpd: handler for %s: %v", conn.RemoteAddr(), err)
				return
			}
			// reset for the next request, carrying over pipelined bytes
			// already received past the dispatched message
			consumed := bytes.Index(buf[:read], []byte(HeaderEnd)) + len(HeaderEnd) + len(msg.Body)
			rest := buf[consumed:read]
			buf = make([]byte, max(MaxHeaderSize, len(rest)))
			read = copy(buf, rest)
			extended = false
			continue
		}

		if !extended && contentLen > 0 && read < MaxHeaderSize+contentLen {
			grown := make([]byte, MaxHeaderSize+contentLen)
			copy(grown, buf[:read])
			buf = grown
			extended = true
		}
		if contentLen == 0 && read == len(buf) {
			log.Printf("httpd: headers from %s exceed %d bytes", conn.RemoteAddr(), MaxHeaderSize)
			return
		}

		n, err := conn.Read(buf[read:])
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("httpd: read from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		read += n
	}
}
