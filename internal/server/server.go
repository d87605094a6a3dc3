package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"filehttpd/internal/handler"
	"filehttpd/internal/headers"
	"filehttpd/internal/request"

	"github.com/google/uuid"
)

// Bounds for reading leftover input before closing a connection whose
// request was not fully consumed.
const (
	lingerTimeout = 250 * time.Millisecond
	lingerLimit   = 64 * 1024
)

type Options struct {
	Port int
	// ReadTimeout bounds each read from a client; 0 means wait forever.
	ReadTimeout time.Duration
	// MaxLine caps the request line; 0 means request.DefaultMaxLine.
	MaxLine int
}

// Server accepts one connection at a time and runs it through
// read -> validate -> dispatch -> respond -> close before accepting the next.
type Server struct {
	Port       int
	listener   net.Listener
	closed     atomic.Bool
	terminated atomic.Bool
	opts       Options
	get        *handler.GetHandler
	term       *handler.TerminateHandler
	logger     *slog.Logger
	done       chan struct{}
	err        error
}

func Serve(opts Options, get *handler.GetHandler, term *handler.TerminateHandler, logger *slog.Logger) (*Server, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", opts.Port, err)
	}
	s := &Server{
		Port:     l.Addr().(*net.TCPAddr).Port,
		listener: l,
		opts:     opts,
		get:      get,
		term:     term,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go s.listen()
	return s, nil
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }

func (s *Server) Close() error {
	// Make Close idempotent.
	if s.closed.Swap(true) {
		return nil
	}
	return s.listener.Close()
}

// Done is closed once the accept loop has exited.
func (s *Server) Done() <-chan struct{} { return s.done }

// Wait blocks until the accept loop exits. It returns nil after a
// termination request or Close, and the accept error otherwise.
func (s *Server) Wait() error {
	<-s.done
	return s.err
}

// Terminated reports whether a termination request stopped the server.
func (s *Server) Terminated() bool { return s.terminated.Load() }

func (s *Server) listen() {
	defer close(s.done)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				// transient accept error; keep going
				continue
			}
			s.err = fmt.Errorf("accept: %w", err)
			s.logger.Error("accept failed", "err", err)
			_ = s.Close()
			return
		}

		if s.handle(conn) {
			s.terminated.Store(true)
			s.logger.Info("termination accepted, shutting down")
			_ = s.Close()
			return
		}
	}
}

// helper: format duration compactly
func fmtDur(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

// handle serves one connection and reports whether the server should stop.
// The connection is closed before handle returns.
func (s *Server) handle(conn net.Conn) bool {
	defer conn.Close()
	start := time.Now()

	remoteHost, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	log := s.logger.With("conn", uuid.NewString(), "remote", remoteHost)

	br := bufio.NewReaderSize(&deadlineReader{conn: conn, timeout: s.opts.ReadTimeout}, headers.ReadBufferSize)
	req, err := request.ReadRequest(br, s.opts.MaxLine)
	if err != nil {
		log.Debug("connection closed without a request", "err", err, "dur", fmtDur(time.Since(start)))
		return false
	}
	if req.Cause != nil {
		log.Debug("request line rejected", "err", req.Cause)
	}
	if req.HeaderErr != nil {
		log.Debug("header block not drained", "err", req.HeaderErr, "lines", req.HeaderLines)
	}
	if errors.Is(req.Cause, request.ErrRequestLineTooLong) || req.HeaderErr != nil {
		defer discardInput(conn)
	}

	out := s.dispatch(req)
	if out.doc != nil {
		defer out.doc.Close()
	}

	n, err := respond(conn, out)
	if err != nil {
		// The client is abandoned; the server keeps going.
		log.Warn("write response failed",
			"method", methodOf(req), "argument", logArgument(req),
			"code", out.status.Code(), "bytes", n, "err", err,
		)
		return out.terminate
	}

	log.Info("request",
		"method", methodOf(req),
		"argument", logArgument(req),
		"code", out.status.Code(),
		"reason", out.status.Reason(),
		"bytes", n,
		"dur", fmtDur(time.Since(start)),
	)
	return out.terminate
}

func methodOf(req *request.Request) string {
	if req.RequestLine == nil {
		return "-"
	}
	return req.RequestLine.Method
}

// logArgument keeps TERMINATE tokens out of the access log.
func logArgument(req *request.Request) string {
	switch {
	case req.RequestLine == nil:
		return "-"
	case req.Method == request.MethodTerminate:
		return "[redacted]"
	default:
		return req.RequestLine.Argument
	}
}

// discardInput half-closes conn and swallows what the client is still
// sending, so the close does not reset the connection under the response.
func discardInput(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, lingerLimit))
}

// deadlineReader arms a fresh read deadline before every read.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	if d.timeout > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return 0, err
		}
	}
	return d.conn.Read(p)
}
