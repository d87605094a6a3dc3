package main

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"filehttpd/internal/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	var out bytes.Buffer
	dump(&out, request.Validate("GET /a.txt HTTP/1.1\r\n"))
	assert.Equal(t, "Request line:\n- Method: GET\n- Argument: /a.txt\n- Protocol: HTTP/1.1\n"+
		"Classified as: GET\nVerdict: passed, GET handler would run\nHeader lines drained: 0\n", out.String())

	out.Reset()
	dump(&out, request.Validate("BREW /pot HTTP/1.1\r\n"))
	assert.Contains(t, out.String(), "Classified as: neither\n")
	assert.Contains(t, out.String(), "Verdict: 405 Unsupported Method\n")

	out.Reset()
	dump(&out, request.Validate("GET /pot"))
	assert.Equal(t, "Rejected: 400 Malformed Request (request line missing CRLF terminator)\n", out.String())
}

func TestHandleConnLongHeaderLine(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		handleConn(srv, &out, request.DefaultMaxLine, 5*time.Second)
	}()

	raw := "GET / HTTP/1.1\r\nX-Long: " + strings.Repeat("v", 6*1024) + "\r\n\r\n"
	go func() { _, _ = io.WriteString(client, raw) }()

	require.NoError(t, client.SetDeadline(time.Now().Add(5*time.Second)))
	resp, err := io.ReadAll(client)
	require.NoError(t, err)
	<-done

	assert.True(t, strings.HasPrefix(string(resp), "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out.String(), "Header lines drained: 1\n")
	assert.NotContains(t, out.String(), "drain error")
}
