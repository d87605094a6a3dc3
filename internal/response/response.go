package response

import (
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"sort"
	"strconv"

	"filehttpd/internal/headers"
	"filehttpd/internal/status"
)

const httpVersion = "HTTP/1.1"

// Body bytes are sent in chunks of this size.
const chunkSize = 1024

var (
	ErrWriteOrder = errors.New("response written out of order")
	ErrNoStatus   = errors.New("no status to write")
)

// GetDefaultHeaders returns a fresh headers map for a response whose body is
// contentLen bytes. Keys are stored lowercase like headers.Headers does.
func GetDefaultHeaders(contentLen int64) headers.Headers {
	h := headers.NewHeaders()
	SetContentLength(h, contentLen)
	h.Override("connection", "close")
	return h
}

// SetContentLength replaces the Content-Length in h; it is single-valued.
func SetContentLength(h headers.Headers, n int64) {
	h.Override("content-length", strconv.FormatInt(n, 10))
}

type Writer struct {
	writer       io.Writer
	WriterStatus WriterStatus
	Status       status.Status
	// Written counts body bytes sent.
	Written int64
}

type WriterStatus int

const (
	WritingStatusLine WriterStatus = iota + 1
	WritingHeaders
	WritingBody
)

var WriterStatusName = map[WriterStatus]string{
	WritingStatusLine: "WRITING_STATUS_LINE",
	WritingHeaders:    "WRITING_HEADERS",
	WritingBody:       "WRITING_BODY",
}

func NewWriter(conn io.Writer) *Writer {
	return &Writer{writer: conn, WriterStatus: WritingStatusLine}
}

func (w *Writer) expect(s WriterStatus) error {
	if w.WriterStatus != s {
		return fmt.Errorf("%w: in %s, want %s", ErrWriteOrder, WriterStatusName[w.WriterStatus], WriterStatusName[s])
	}
	return nil
}

// WriteStatusLine writes "HTTP/1.1 <code> <reason>\r\n".
func (w *Writer) WriteStatusLine(st status.Status) error {
	if err := w.expect(WritingStatusLine); err != nil {
		return err
	}
	if !st.IsSet() {
		return ErrNoStatus
	}
	w.Status = st
	w.WriterStatus = WritingHeaders

	_, err := fmt.Fprintf(w.writer, "%s %d %s\r\n", httpVersion, st.Code(), st.Reason())
	return err
}

// WriteHeaders writes h sorted by name, then the blank line ending the
// header block. A nil h writes only the blank line.
func (w *Writer) WriteHeaders(h headers.Headers) error {
	if err := w.expect(WritingHeaders); err != nil {
		return err
	}
	w.WriterStatus = WritingBody

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		display := textproto.CanonicalMIMEHeaderKey(k)
		if _, err := fmt.Fprintf(w.writer, "%s: %s\r\n", display, h.Get(k)); err != nil {
			return err
		}
	}

	// Final CRLF to end the header block
	_, err := io.WriteString(w.writer, "\r\n")
	return err
}

// WriteBody streams r to the connection sequentially in fixed-size chunks
// until EOF.
func (w *Writer) WriteBody(r io.Reader) (int64, error) {
	if err := w.expect(WritingBody); err != nil {
		return 0, err
	}

	buf := make([]byte, chunkSize)
	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			m, werr := w.writer.Write(buf[:n])
			total += int64(m)
			w.Written += int64(m)
			if werr != nil {
				return total, werr
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}
