package server

import (
	"io"

	"filehttpd/internal/handler"
	"filehttpd/internal/request"
	"filehttpd/internal/response"
	"filehttpd/internal/status"
)

// outcome is everything needed to answer one request.
type outcome struct {
	status    status.Status
	doc       *handler.Document
	terminate bool
	// handled is true when a GET or TERMINATE handler produced status.
	handled bool
}

// dispatch turns a validated request into an outcome. A status recorded
// during validation is sent as-is and no handler runs; otherwise the
// handler for the request's method decides.
func (s *Server) dispatch(req *request.Request) outcome {
	if req.Status.IsSet() {
		return outcome{status: req.Status}
	}

	switch req.Method {
	case request.MethodGet:
		doc, st := s.get.Resolve(req.Argument())
		return outcome{status: st, doc: doc, handled: true}
	case request.MethodTerminate:
		ok, st := s.term.Evaluate(req.Argument())
		return outcome{status: st, terminate: ok, handled: true}
	}

	// Validate records UnsupportedMethod for every other method.
	return outcome{status: status.UnsupportedMethod}
}

// respond writes the status line, the default headers and, for a resolved
// document, its full contents. It returns the body bytes written.
func respond(w io.Writer, out outcome) (int64, error) {
	rw := response.NewWriter(w)
	if err := rw.WriteStatusLine(out.status); err != nil {
		return 0, err
	}

	var size int64
	if out.doc != nil {
		size = out.doc.Size
	}
	if err := rw.WriteHeaders(response.GetDefaultHeaders(size)); err != nil {
		return 0, err
	}

	if out.doc == nil {
		return 0, nil
	}
	return rw.WriteBody(out.doc)
}
