package agent

import (
	"crypto/tls"
	"reflect"
	"time"

	"golang.org/x/time/rate"

	"github.com/curol/agentnet/httpwire"
)

// Config holds Server tuning knobs. Fields must be set before start()/run();
// changing them afterward has unspecified effect (§5).
type Config struct {
	ListenAddress httpwire.ListenAddress
	Timeout       time.Duration
	// MaxRequestTargetBytes caps the length of the request-target (the
	// URITooLong limit); distinct from MaxHeaderBytes, which caps the
	// total bytes of the header block.
	MaxRequestTargetBytes int
	// MaxHeaderBytes caps the total bytes of the request's header lines
	// (the request line is not counted) — the §4.6 header-phase size cap.
	MaxHeaderBytes  int
	MaxRequestBody  int64
	MaxResponseBody int64
	TLSConfig       *tls.Config
	// RateLimit, if non-nil, throttles Accept via golang.org/x/time/rate;
	// nil means unlimited.
	RateLimit *rate.Limiter
	Log       Log
}

// DefaultConfig mirrors the teacher's server/config.go defaults (5 MiB
// caps, 10-minute deadline), extended with the fields this spec adds.
func DefaultConfig() Config {
	return Config{
		ListenAddress:         httpwire.ListenAddress{Host: "", Port: 8080},
		Timeout:               10 * time.Minute,
		MaxRequestTargetBytes: 8 * 1024,
		MaxHeaderBytes:        1 << 20,
		MaxRequestBody:        5 * 1024 * 1024,
		MaxResponseBody:       5 * 1024 * 1024,
	}
}

// Merge returns a Config with every non-zero field of override replacing
// the corresponding field in c, using the teacher's reflection-based
// "non-zero field wins" merge (server/config.go:mergeConfigs).
func (c Config) Merge(override Config) Config {
	result := c
	va := reflect.ValueOf(&result).Elem()
	vb := reflect.ValueOf(&override).Elem()

	for i := 0; i < va.NumField(); i++ {
		fa := va.Field(i)
		fb := vb.Field(i)
		if !fb.CanInterface() {
			continue
		}
		zero := reflect.Zero(fb.Type()).Interface()
		if !reflect.DeepEqual(fb.Interface(), zero) {
			fa.Set(fb)
		}
	}
	return result
}

func (c Config) limits() httpwire.Limits {
	l := httpwire.Limits{
		MaxRequestTargetLen: c.MaxRequestTargetBytes,
		MaxHeaderBytes:      c.MaxHeaderBytes,
		MaxRequestBody:      c.MaxRequestBody,
	}
	if l.MaxRequestTargetLen == 0 {
		l.MaxRequestTargetLen = httpwire.DefaultLimits.MaxRequestTargetLen
	}
	if l.MaxHeaderBytes == 0 {
		l.MaxHeaderBytes = httpwire.DefaultLimits.MaxHeaderBytes
	}
	if l.MaxRequestBody == 0 {
		l.MaxRequestBody = httpwire.DefaultLimits.MaxRequestBody
	}
	return l
}
