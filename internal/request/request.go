package request

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"filehttpd/internal/headers"
	"filehttpd/internal/status"
)

// Request is the outcome of reading and validating one request.
// Exactly one of two shapes holds:
//   - RequestLine == nil: the line was rejected (status 400), nothing else is known.
//   - RequestLine != nil: the line had three tokens; Status holds the first
//     soft failure (protocol or method), or None when both checks passed.
type Request struct {
	RequestLine *RequestLine
	Method      Method
	Status      status.Status

	// Cause explains a rejected line.
	Cause error
	// HeaderLines counts the header lines drained after the request line.
	HeaderLines int
	// HeaderErr is set when the header block could not be drained. It never
	// changes Status.
	HeaderErr error
}

// RequestLine holds the three tokens of
//
//	<method> SP <argument> SP <protocol-tag>
type RequestLine struct {
	Method   string
	Argument string
	Protocol string
}

type Method int

const (
	MethodNeither Method = iota
	MethodGet
	MethodTerminate
)

var MethodName = map[Method]string{
	MethodNeither:   "neither",
	MethodGet:       "GET",
	MethodTerminate: "TERMINATE",
}

func (m Method) String() string { return MethodName[m] }

var (
	ErrMissingTerminator  = errors.New("request line missing CRLF terminator")
	ErrTokenCount         = errors.New("request line must have exactly 3 tokens")
	ErrRequestLineTooLong = errors.New("request line too long")
	ErrNoRequest          = errors.New("no request received")

	allowedMethods = map[string]Method{
		"GET":       MethodGet,
		"TERMINATE": MethodTerminate,
	}
)

const separator = "\r\n"

const protocolName = "HTTP"

// DefaultMaxLine caps the request line, terminator included.
const DefaultMaxLine = 8 * 1024 // 8 KiB

// Rejected reports whether the line failed a fatal check.
func (r *Request) Rejected() bool {
	return r.RequestLine == nil
}

// Argument returns the argument token, or "" for a rejected line.
func (r *Request) Argument() string {
	if r.RequestLine == nil {
		return ""
	}
	return r.RequestLine.Argument
}

// record keeps the first soft failure.
func (r *Request) record(st status.Status) {
	if !r.Status.IsSet() {
		r.Status = st
	}
}

func rejected(cause error) *Request {
	return &Request{Status: status.MalformedRequest, Cause: cause}
}

// Validate applies the request-line checks in order:
//
//  1. the line contains CRLF (fatal)
//  2. splitting on single spaces yields exactly 3 tokens (fatal)
//  3. the protocol tag's part before "/" is "HTTP" (soft)
//  4. the method is GET or TERMINATE (soft)
//
// Soft failures are recorded and checking continues; the first recorded
// failure is the one reported.
func Validate(line string) *Request {
	idx := strings.Index(line, separator)
	if idx == -1 {
		return rejected(ErrMissingTerminator)
	}

	tokens := strings.Split(line[:idx], " ")
	if len(tokens) != 3 {
		return rejected(ErrTokenCount)
	}

	req := &Request{RequestLine: &RequestLine{
		Method:   tokens[0],
		Argument: tokens[1],
		Protocol: tokens[2],
	}}

	// The tag must start with "HTTP/": a bare "HTTP" is a mismatch too.
	if name, _, found := strings.Cut(tokens[2], "/"); !found || name != protocolName {
		req.record(status.ProtocolNotImplemented)
	}

	req.Method = Classify(tokens[0])
	if req.Method == MethodNeither {
		req.record(status.UnsupportedMethod)
	}

	return req
}

// Classify maps the method token to a Method. Matching is exact.
func Classify(method string) Method {
	if m, ok := allowedMethods[method]; ok {
		return m
	}
	return MethodNeither
}

// ReadRequest reads the request line from r, validates it, then drains the
// header block. maxLine <= 0 means DefaultMaxLine.
//
// An error is returned only when nothing usable arrived (ErrNoRequest); a
// partial line cut short by close or timeout is validated like any other.
func ReadRequest(r *bufio.Reader, maxLine int) (*Request, error) {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}

	line, err := readLine(r, maxLine)
	if errors.Is(err, ErrRequestLineTooLong) {
		return rejected(err), nil
	}
	if err != nil && len(line) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoRequest, err)
	}

	req := Validate(line)
	if err != nil {
		// Input ended mid-line; there is no header block to drain.
		return req, nil
	}

	req.HeaderLines, req.HeaderErr = headers.Drain(r)
	return req, nil
}

// readLine returns bytes up to and including the first '\n', or whatever
// arrived before the read error.
func readLine(r *bufio.Reader, maxLine int) (string, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > maxLine {
			return "", ErrRequestLineTooLong
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), err
	}
}
