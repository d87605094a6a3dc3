package server

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"filehttpd/internal/handler"
	"filehttpd/internal/request"
	"filehttpd/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatchServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "homepage.html"), []byte("hi"), 0o644))
	get, err := handler.NewGetHandler(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = get.Close() })
	return &Server{get: get, term: handler.NewTerminateHandler(handler.PlainToken(testToken))}
}

func TestDispatch(t *testing.T) {
	s := newDispatchServer(t)

	cases := []struct {
		line      string
		want      status.Status
		handled   bool
		terminate bool
	}{
		{"GET / HTTP/1.1\r\n", status.OK, true, false},
		{"GET /x HTTP/1.1\r\n", status.FileNotFound, true, false},
		{"GET x HTTP/1.1\r\n", status.InvalidFilename, true, false},
		{"TERMINATE s3cr3t HTTP/1.1\r\n", status.ShuttingDown, true, true},
		{"TERMINATE nope HTTP/1.1\r\n", status.Forbidden, true, false},
		{"TERMINATE s3cr3t XTTP/1.1\r\n", status.ProtocolNotImplemented, false, false},
		{"GET / XTTP/1.1\r\n", status.ProtocolNotImplemented, false, false},
		{"DELETE / HTTP/1.1\r\n", status.UnsupportedMethod, false, false},
		{"GET / HTTP/1.1", status.MalformedRequest, false, false},
		{"GET  / HTTP/1.1\r\n", status.MalformedRequest, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			req := request.Validate(tc.line)
			out := s.dispatch(req)
			if out.doc != nil {
				defer out.doc.Close()
			}
			assert.Equal(t, tc.want, out.status)
			assert.Equal(t, tc.handled, out.handled)
			assert.Equal(t, tc.terminate, out.terminate)

			// Either validation set the status or a handler did, never both.
			assert.NotEqual(t, req.Status.IsSet(), out.handled)
			assert.Equal(t, out.status == status.OK, out.doc != nil)
		})
	}
}

func TestRespond(t *testing.T) {
	s := newDispatchServer(t)

	out := s.dispatch(request.Validate("GET / HTTP/1.1\r\n"))
	require.NotNil(t, out.doc)
	defer out.doc.Close()

	var buf bytes.Buffer
	n, err := respond(&buf, out)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 2\r\n\r\nhi", buf.String())
}

type brokenConn struct{}

func (brokenConn) Write([]byte) (int, error) { return 0, errors.New("connection reset by peer") }

func TestRespondWriteError(t *testing.T) {
	_, err := respond(brokenConn{}, outcome{status: status.Forbidden})
	require.Error(t, err)
}
