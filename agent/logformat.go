package agent

import (
	"strconv"
	"strings"
	"time"
)

// LogFieldFunc renders one field of a LogRecord as the external
// log-format collaborator's verb expects; arg carries the verb's
// brace-argument, e.g. the header name in %{name}i.
type LogFieldFunc func(rec *LogRecord, arg string) string

// LogFormatter is the data-driven field-accessor table §9's "Log-format
// expansion" REDESIGN FLAG calls for, replacing what would otherwise be a
// monolithic format-string interpreter: the string-expansion engine
// itself stays an external collaborator (§1 Out-of-scope); this package
// only exposes the accessors in §6's verb table.
type LogFormatter struct {
	fields map[byte]LogFieldFunc
}

// NewLogFormatter returns a LogFormatter pre-populated with every verb
// §6 lists.
func NewLogFormatter() *LogFormatter {
	f := &LogFormatter{fields: make(map[byte]LogFieldFunc)}
	f.register('h', fieldRemoteIP)
	f.register('a', fieldRemoteIP)
	f.register('A', fieldLocalIP)
	f.register('B', fieldBodyBytes)
	f.register('b', fieldBodyBytesCLF)
	f.register('C', fieldRequestCookie)
	f.register('D', fieldServiceTimeMicros)
	f.register('H', fieldProtocol)
	f.register('i', fieldRequestHeader)
	f.register('m', fieldMethod)
	f.register('o', fieldResponseHeader)
	f.register('p', fieldPort)
	f.register('P', fieldWorkerID)
	f.register('q', fieldQueryString)
	f.register('r', fieldRequestLine)
	f.register('s', fieldStatusCode)
	f.register('t', fieldRequestTime)
	f.register('T', fieldServiceTime)
	f.register('u', fieldAuthUser)
	f.register('U', fieldURLPath)
	f.register('X', fieldCompletionFlag)
	return f
}

func (f *LogFormatter) register(verb byte, fn LogFieldFunc) {
	f.fields[verb] = fn
}

// LogField looks up the accessor for a format verb (e.g. "i" for
// "%{name}i"), returning it bound to arg so an external formatter can
// call it directly against successive LogRecords.
func (f *LogFormatter) LogField(verb string, arg string) func(*LogRecord) string {
	if len(verb) != 1 {
		return func(*LogRecord) string { return "" }
	}
	fn, ok := f.fields[verb[0]]
	if !ok {
		return func(*LogRecord) string { return "" }
	}
	return func(rec *LogRecord) string { return fn(rec, arg) }
}

func fieldRemoteIP(rec *LogRecord, _ string) string {
	if rec.Request == nil || rec.Request.Connection == nil {
		return "-"
	}
	return hostOnly(rec.Request.Connection.RemoteAddress())
}

func fieldLocalIP(rec *LogRecord, _ string) string {
	if rec.Request == nil || rec.Request.Connection == nil {
		return "-"
	}
	return hostOnly(rec.Request.Connection.LocalAddress())
}

func hostOnly(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}

func portOnly(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[i+1:]
	}
	return ""
}

func fieldBodyBytes(rec *LogRecord, _ string) string {
	if rec.Response == nil || rec.Response.Body == nil {
		return "0"
	}
	return strconv.FormatInt(rec.Response.Body.ContentLength(), 10)
}

func fieldBodyBytesCLF(rec *LogRecord, arg string) string {
	n := fieldBodyBytes(rec, arg)
	if n == "0" {
		return "-"
	}
	return n
}

func fieldRequestCookie(rec *LogRecord, name string) string {
	if rec.Request == nil || rec.Request.Cookies == nil {
		return "-"
	}
	c, ok := rec.Request.Cookies.Get(name)
	if !ok {
		return "-"
	}
	return c.Value
}

func fieldServiceTimeMicros(rec *LogRecord, _ string) string {
	return strconv.FormatInt(rec.ServiceTime.Microseconds(), 10)
}

func fieldProtocol(rec *LogRecord, _ string) string {
	if rec.Request == nil {
		return "-"
	}
	return rec.Request.Protocol.String()
}

func fieldRequestHeader(rec *LogRecord, name string) string {
	if rec.Request == nil {
		return "-"
	}
	if v := rec.Request.Headers.Get(name); v != "" {
		return v
	}
	return "-"
}

func fieldMethod(rec *LogRecord, _ string) string {
	if rec.Request == nil {
		return "-"
	}
	return rec.Request.Method
}

func fieldResponseHeader(rec *LogRecord, name string) string {
	if rec.Response == nil {
		return "-"
	}
	if v := rec.Response.Headers.Get(name); v != "" {
		return v
	}
	return "-"
}

func fieldPort(rec *LogRecord, which string) string {
	if rec.Request == nil || rec.Request.Connection == nil {
		return "-"
	}
	switch which {
	case "local":
		return portOnly(rec.Request.Connection.LocalAddress())
	default: // "remote", "canonical"
		return portOnly(rec.Request.Connection.RemoteAddress())
	}
}

func fieldWorkerID(rec *LogRecord, _ string) string {
	if rec.WorkerID == "" {
		return "-"
	}
	return rec.WorkerID
}

func fieldQueryString(rec *LogRecord, _ string) string {
	if rec.Request == nil || rec.Request.Uri == nil || rec.Request.Uri.Query == nil || rec.Request.Uri.Query.Len() == 0 {
		return ""
	}
	return rec.Request.Uri.Query.BuildQueryString(true)
}

func fieldRequestLine(rec *LogRecord, _ string) string {
	if rec.Request == nil {
		return "-"
	}
	target := "/"
	if rec.Request.Uri != nil {
		target = rec.Request.Uri.Path.Encoded() + fieldQueryString(rec, "")
	}
	return rec.Request.Method + " " + target + " " + rec.Request.Protocol.String()
}

func fieldStatusCode(rec *LogRecord, _ string) string {
	return strconv.Itoa(int(rec.Status.Code))
}

func fieldRequestTime(rec *LogRecord, layout string) string {
	if layout == "" {
		layout = time.RFC3339
	}
	return rec.Received.Format(layout)
}

func fieldServiceTime(rec *LogRecord, unit string) string {
	switch unit {
	case "ms":
		return strconv.FormatInt(rec.ServiceTime.Milliseconds(), 10)
	case "us":
		return strconv.FormatInt(rec.ServiceTime.Microseconds(), 10)
	default: // "s"
		return strconv.FormatFloat(rec.ServiceTime.Seconds(), 'f', -1, 64)
	}
}

func fieldAuthUser(rec *LogRecord, _ string) string {
	if rec.Request == nil || rec.Request.Auth.User == "" {
		return "-"
	}
	return rec.Request.Auth.User
}

func fieldURLPath(rec *LogRecord, _ string) string {
	if rec.Request == nil || rec.Request.Uri == nil {
		return "-"
	}
	return rec.Request.Uri.Path.Encoded()
}

// fieldCompletionFlag renders HttPony's %X flag: "X" if the connection
// was aborted before its response completed, "+" otherwise.
func fieldCompletionFlag(rec *LogRecord, _ string) string {
	if !rec.Completed {
		return "X"
	}
	return "+"
}
