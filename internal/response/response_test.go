package response

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"filehttpd/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOnlyResponse(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteStatusLine(status.FileNotFound))
	require.NoError(t, w.WriteHeaders(GetDefaultHeaders(0)))
	assert.Equal(t, "HTTP/1.1 404 File Not Found\r\nConnection: close\r\nContent-Length: 0\r\n\r\n", buf.String())
	assert.Equal(t, status.FileNotFound, w.Status)
}

func TestBodyResponse(t *testing.T) {
	body := strings.Repeat("0123456789", 300) // spans several chunks

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteStatusLine(status.OK))
	require.NoError(t, w.WriteHeaders(GetDefaultHeaders(int64(len(body)))))
	n, err := w.WriteBody(iotest.HalfReader(strings.NewReader(body)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)
	assert.Equal(t, int64(len(body)), w.Written)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 3000\r\n\r\n"+body, buf.String())
}

func TestSetContentLengthReplaces(t *testing.T) {
	h := GetDefaultHeaders(0)
	SetContentLength(h, 42)
	assert.Equal(t, "42", h.Get("Content-Length"))
	assert.Equal(t, "close", h.Get("Connection"))
	assert.Len(t, h, 2)
}

func TestNilHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteStatusLine(status.ShuttingDown))
	require.NoError(t, w.WriteHeaders(nil))
	assert.Equal(t, "HTTP/1.1 200 Server Shutting Down\r\n\r\n", buf.String())
}

// chunkRecorder records the size of every Write call.
type chunkRecorder struct{ sizes []int }

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return len(p), nil
}

func TestBodyIsChunked(t *testing.T) {
	rec := &chunkRecorder{}
	w := NewWriter(rec)
	w.WriterStatus = WritingBody
	_, err := w.WriteBody(strings.NewReader(strings.Repeat("x", 2*chunkSize+10)))
	require.NoError(t, err)
	assert.Equal(t, []int{chunkSize, chunkSize, 10}, rec.sizes)
}

func TestWriteOrder(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	_, err := w.WriteBody(strings.NewReader("x"))
	require.ErrorIs(t, err, ErrWriteOrder)
	require.ErrorIs(t, w.WriteHeaders(nil), ErrWriteOrder)
	require.ErrorIs(t, w.WriteStatusLine(status.None), ErrNoStatus)

	require.NoError(t, w.WriteStatusLine(status.Forbidden))
	require.ErrorIs(t, w.WriteStatusLine(status.Forbidden), ErrWriteOrder)
	assert.Equal(t, "HTTP/1.1 403 Operation Forbidden\r\n", buf.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteErrors(t *testing.T) {
	w := NewWriter(failWriter{})
	require.Error(t, w.WriteStatusLine(status.OK))

	w = NewWriter(failWriter{})
	w.WriterStatus = WritingBody
	_, err := w.WriteBody(strings.NewReader("abc"))
	require.Error(t, err)

	var buf bytes.Buffer
	w = NewWriter(&buf)
	w.WriterStatus = WritingBody
	_, err = w.WriteBody(iotest.ErrReader(errors.New("disk gone")))
	require.EqualError(t, err, "disk gone")
}
