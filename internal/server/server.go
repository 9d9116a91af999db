// Package server routes HTTP requests onto an open image store. One mutex
// serializes every store operation; responses are written outside of it.
package server

import (
	"bytes"
	"fmt"
	"log"
	"net"
	"sync"

	imgfs "github.com/ehrlich-b/go-imgfs"
	"github.com/ehrlich-b/go-imgfs/internal/httpd"
)

const uriRoot = "/imgfs"

// maxResName bounds the res query parameter ("thumbnail" is the longest
// accepted name).
const maxResName = 15

// Server bridges the HTTP layer and the store. It holds the store handle
// and owns its serialization lock for its whole lifetime.
type Server struct {
	fs        *imgfs.FS
	mu        sync.Mutex
	port      uint16
	indexFile string
	httpd     *httpd.Server
}

// Config carries the server parameters.
type Config struct {
	// Port is the TCP port to listen on. Pass 0 for an OS-assigned port.
	Port uint16

	// IndexFile is the path of the static page served at / and
	// /index.html.
	IndexFile string
}

// New wraps an open store. The caller keeps ownership of fs and closes it
// itself; Close leaves it open.
func New(fs *imgfs.FS, cfg Config) *Server {
	return &Server{
		fs:        fs,
		port:      cfg.Port,
		indexFile: cfg.IndexFile,
	}
}

// Listen binds the listener. With Port 0 the OS picks a free port, which
// Port reports afterwards.
func (s *Server) Listen() error {
	h, err := httpd.Listen(s.port, s.handle)
	if err != nil {
		return err
	}
	s.httpd = h
	if addr, ok := h.Addr().(*net.TCPAddr); ok {
		s.port = uint16(addr.Port)
	}
	log.Printf("ImgFS server started on http://localhost:%d", s.port)
	return nil
}

// Serve accepts connections until Close shuts the listener down.
func (s *Server) Serve() error {
	for {
		if err := s.httpd.Receive(); err != nil {
			// a closed listener ends the accept loop; per-connection
			// failures never reach here
			return nil
		}
	}
}

// ListenAndServe binds the listener and runs the accept loop.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Port returns the bound port once ListenAndServe has started.
func (s *Server) Port() uint16 {
	return s.port
}

// Close shuts the listener. In-flight connections drain on their own; the
// store handle stays open for the caller to close.
func (s *Server) Close() error {
	if s.httpd == nil {
		return nil
	}
	return s.httpd.Close()
}

// handle dispatches one parsed request by URI prefix.
func (s *Server) handle(msg *httpd.Message, conn net.Conn) error {
	if bytes.Equal(msg.URI, []byte("/")) || httpd.MatchURI(msg, "/index.html") {
		return httpd.ServeFile(conn, s.indexFile, msg)
	}

	switch {
	case httpd.MatchURI(msg, uriRoot+"/list"):
		return s.handleList(msg, conn)
	case httpd.MatchURI(msg, uriRoot+"/read"):
		return s.handleRead(msg, conn)
	case httpd.MatchURI(msg, uriRoot+"/delete"):
		return s.handleDelete(msg, conn)
	case httpd.MatchURI(msg, uriRoot+"/insert") && httpd.MatchVerb(msg.Method, "POST"):
		return s.handleInsert(msg, conn)
	default:
		return s.replyError(conn, imgfs.ErrInvalidCommand)
	}
}

// replyError sends the fixed 500 rendering of a store or request error.
func (s *Server) replyError(conn net.Conn, err error) error {
	body := fmt.Sprintf("Error: %s\n", imgfs.Message(err))
	return httpd.Reply(conn, httpd.StatusError, "", []byte(body))
}

// reply302 redirects the client back to the index page.
func (s *Server) reply302(conn net.Conn) error {
	headers := fmt.Sprintf("Location%shttp://localhost:%d/index.html%s",
		httpd.KeyValDelim, s.port, httpd.LineDelim)
	return httpd.Reply(conn, httpd.StatusFound, headers, nil)
}

func (s *Server) handleList(msg *httpd.Message, conn net.Conn) error {
	s.mu.Lock()
	body, err := s.fs.ListJSON()
	s.mu.Unlock()
	if err != nil {
		return s.replyError(conn, err)
	}
	return httpd.ReplyEncoded(conn, msg, httpd.StatusOK, "application/json", body)
}

func (s *Server) handleRead(msg *httpd.Message, conn net.Conn) error {
	resName, err := httpd.GetVar(msg.URI, "res", maxResName)
	if err != nil {
		return s.replyError(conn, err)
	}
	if resName == "" {
		return s.replyError(conn, imgfs.ErrNotEnoughArguments)
	}
	resolution := imgfs.ResolutionAtoi(resName)
	if resolution == -1 {
		return s.replyError(conn, imgfs.ErrResolutions)
	}
	imgID, err := httpd.GetVar(msg.URI, "img_id", imgfs.MaxImgID)
	if err != nil {
		return s.replyError(conn, err)
	}
	if imgID == "" {
		return s.replyError(conn, imgfs.ErrNotEnoughArguments)
	}

	s.mu.Lock()
	image, err := s.fs.Read(imgID, resolution)
	s.mu.Unlock()
	if err != nil {
		return s.replyError(conn, err)
	}
	headers := "Content-Type" + httpd.KeyValDelim + "image/jpeg" + httpd.LineDelim
	return httpd.Reply(conn, httpd.StatusOK, headers, image)
}

func (s *Server) handleDelete(msg *httpd.Message, conn net.Conn) error {
	imgID, err := httpd.GetVar(msg.URI, "img_id", imgfs.MaxImgID)
	if err != nil {
		return s.replyError(conn, err)
	}
	if imgID == "" {
		return s.replyError(conn, imgfs.ErrNotEnoughArguments)
	}

	s.mu.Lock()
	err = s.fs.Delete(imgID)
	s.mu.Unlock()
	if err != nil {
		return s.replyError(conn, err)
	}
	return s.reply302(conn)
}

func (s *Server) handleInsert(msg *httpd.Message, conn net.Conn) error {
	name, err := httpd.GetVar(msg.URI, "name", imgfs.MaxImgID)
	if err != nil {
		return s.replyError(conn, err)
	}
	if name == "" {
		return s.replyError(conn, imgfs.ErrNotEnoughArguments)
	}

	// msg.Body is a view into the receive buffer; Insert copies what it
	// persists before we return, so no intermediate copy is needed.
	s.mu.Lock()
	err = s.fs.Insert(msg.Body, name)
	s.mu.Unlock()
	if err != nil {
		return s.replyError(conn, err)
	}
	return s.reply302(conn)
}
