// Package httpwire implements the HTTP/1.x wire format: the request and
// response data model, the parser, and the formatter.
//
// Grounded on the teacher's net/textproto (status-line + header
// marshal/parse) and message/{head,request_line,parse}.go, re-architected
// per HttPony's agent/server design (original_source) which is the source
// this spec was distilled from: a single Status type does double duty as
// both a response's HTTP status and a parser's outcome code, since
// RequestTimeout/PayloadTooLarge/etc. are themselves valid status codes.
package httpwire

import "strconv"

// Status is an HTTP status: a numeric code and its reason phrase.
type Status struct {
	Code   uint16
	Reason string
}

// reasonPhrases is the known-code table mapping numeric codes to their
// default reason phrase.
var reasonPhrases = map[uint16]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	417: "Expectation Failed",
	426: "Upgrade Required",
	429: "Too Many Requests",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// NewStatus returns the Status for code, using the known-code table for the
// reason phrase (or "" if the code is unrecognized).
func NewStatus(code uint16) Status {
	return Status{Code: code, Reason: reasonPhrases[code]}
}

// String renders "CODE Reason".
func (s Status) String() string {
	if s.Reason == "" {
		return strconv.Itoa(int(s.Code))
	}
	return strconv.Itoa(int(s.Code)) + " " + s.Reason
}

// Named parser/response result constructors (§4.4, §7).
var (
	StatusOK                      = NewStatus(200)
	StatusCreated                 = NewStatus(201)
	StatusNoContent               = NewStatus(204)
	StatusFound                   = NewStatus(302)
	StatusNotModified             = NewStatus(304)
	StatusBadRequest              = NewStatus(400)
	StatusUnauthorized            = NewStatus(401)
	StatusForbidden               = NewStatus(403)
	StatusNotFound                = NewStatus(404)
	StatusRequestTimeout          = NewStatus(408)
	StatusPayloadTooLarge         = NewStatus(413)
	StatusURITooLong              = NewStatus(414)
	StatusInternalServerError     = NewStatus(500)
	StatusHTTPVersionNotSupported = NewStatus(505)
)

// Class is the §3 status-class grouping.
type Class int

const (
	ClassInformational Class = iota
	ClassSuccess
	ClassRedirect
	ClassClientError
	ClassServerError
	ClassUnknown
)

// Class classifies s by its leading digit.
func (s Status) Class() Class {
	switch {
	case s.Code >= 100 && s.Code < 200:
		return ClassInformational
	case s.Code >= 200 && s.Code < 300:
		return ClassSuccess
	case s.Code >= 300 && s.Code < 400:
		return ClassRedirect
	case s.Code >= 400 && s.Code < 500:
		return ClassClientError
	case s.Code >= 500 && s.Code < 600:
		return ClassServerError
	default:
		return ClassUnknown
	}
}

// IsError reports whether s is a 4xx or 5xx status.
func (s Status) IsError() bool {
	c := s.Class()
	return c == ClassClientError || c == ClassServerError
}

// ForbidsBody reports whether a message with this status must not carry a
// body: 1xx, 204, 304 (§4.5 Response.clean_body).
func (s Status) ForbidsBody() bool {
	return s.Class() == ClassInformational || s.Code == 204 || s.Code == 304
}
