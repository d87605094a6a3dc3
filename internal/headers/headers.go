package headers

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

type Headers map[string]string

var (
	ErrHeaderLineTooLong  = errors.New("header line too long")
	ErrTooManyHeaderLines = errors.New("too many header lines")
)

// Per-line cap.
const maxHeaderLine = 8 * 1024 // 8 KiB

// ReadBufferSize is the smallest bufio.Reader size Drain can honour its
// per-line cap with.
const ReadBufferSize = maxHeaderLine

const maxHeaderLines = 100

func NewHeaders() Headers { return Headers{} }

// Get should be case-insensitive.
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

func (h Headers) Set(name, value string) {
	name = strings.ToLower(name)

	if old, ok := h[name]; ok {
		h[name] = old + "," + value
	} else {
		h[name] = value
	}
}

// Override replaces any value already stored under name.
func (h Headers) Override(name, value string) {
	name = strings.ToLower(name)
	h[name] = value
}

// Drain consumes header lines from r up to and including the blank
// terminator line, without interpreting them. It returns the number of
// non-blank lines consumed. Connection close before the terminator is not
// an error.
func Drain(r *bufio.Reader) (n int, err error) {
	for {
		line, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) || len(line) > maxHeaderLine {
			return n, ErrHeaderLineTooLong
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}

		// Blank line => end of headers
		if isBlank(line) {
			return n, nil
		}

		n++
		if n > maxHeaderLines {
			return n, ErrTooManyHeaderLines
		}
	}
}

func isBlank(line []byte) bool {
	return len(line) == 1 || (len(line) == 2 && line[0] == '\r')
}
