package status

import "fmt"

// Status is the single outcome of validating and dispatching one request.
// The zero value None means no status has been recorded yet.
type Status int

const (
	None Status = iota
	OK
	ShuttingDown
	MalformedRequest
	Forbidden
	FileNotFound
	UnsupportedMethod
	InvalidFilename
	ProtocolNotImplemented
)

var StatusCode = map[Status]int{
	OK:                     200,
	ShuttingDown:           200,
	MalformedRequest:       400,
	Forbidden:              403,
	FileNotFound:           404,
	UnsupportedMethod:      405,
	InvalidFilename:        406,
	ProtocolNotImplemented: 501,
}

var StatusReason = map[Status]string{
	OK:                     "OK",
	ShuttingDown:           "Server Shutting Down",
	MalformedRequest:       "Malformed Request",
	Forbidden:              "Operation Forbidden",
	FileNotFound:           "File Not Found",
	UnsupportedMethod:      "Unsupported Method",
	InvalidFilename:        "Invalid Filename",
	ProtocolNotImplemented: "Protocol Not Implemented",
}

// IsSet reports whether a status has been recorded.
func (s Status) IsSet() bool { return s != None }

// Code returns the numeric code, or 0 for None and unknown values.
func (s Status) Code() int { return StatusCode[s] }

// Reason returns the human-readable reason phrase.
func (s Status) Reason() string {
	if r, ok := StatusReason[s]; ok {
		return r
	}
	return "Unknown"
}

// String renders the status as "<code> <reason>", e.g. "404 File Not Found".
func (s Status) String() string {
	if s == None {
		return "none"
	}
	return fmt.Sprintf("%d %s", s.Code(), s.Reason())
}
