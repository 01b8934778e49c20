package agent

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/curol/agentnet/httpwire"
)

// LogRecord is the per-request data a Log implementation (or an external
// log-format collaborator, via LogField) can report on. It is filled in by
// the Server after a request has been handled.
type LogRecord struct {
	Request     *httpwire.Request
	Response    *httpwire.Response
	Status      httpwire.Status
	ServiceTime time.Duration
	WorkerID    string
	Received    time.Time
	Completed   bool
}

// Log is the logging seam a Server writes through. Named and shaped after
// the teacher's message/server/log.go Log interface (Status/Fatal): the
// shape survives, but Status now takes a full record instead of just the
// request, and Fatal is replaced by Error, since the accept loop must
// never treat a per-connection problem as fatal (§7).
type Log interface {
	// Status logs a completed request/response exchange.
	Status(*LogRecord)
	// Error logs a transport, parse, or policy failure that did not reach
	// a full exchange.
	Error(err error, context string)
}

// ZapLog is the default Log, backed by a zap.SugaredLogger. When
// FilePath is set, output is rotated through lumberjack instead of going
// to stderr.
type ZapLog struct {
	sugar *zap.SugaredLogger
}

// ZapLogConfig configures NewZapLog.
type ZapLogConfig struct {
	// FilePath, if non-empty, routes output through a rotating lumberjack
	// writer instead of stderr.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewZapLog builds a ZapLog. With a zero ZapLogConfig it logs to stderr
// using zap's default production encoder.
func NewZapLog(cfg ZapLogConfig) (*ZapLog, error) {
	if cfg.FilePath == "" {
		base, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		return &ZapLog{sugar: base.Sugar()}, nil
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    nonZero(cfg.MaxSizeMB, 100),
		MaxBackups: nonZero(cfg.MaxBackups, 5),
		MaxAge:     nonZero(cfg.MaxAgeDays, 28),
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(writer),
		zap.InfoLevel,
	)
	return &ZapLog{sugar: zap.New(core).Sugar()}, nil
}

func nonZero(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Status logs a completed exchange as a structured record.
func (z *ZapLog) Status(r *LogRecord) {
	method, path, remote := "", "", ""
	if r.Request != nil {
		method = r.Request.Method
		if r.Request.Uri != nil {
			path = r.Request.Uri.Path.Encoded()
		}
		if r.Request.Connection != nil {
			remote = r.Request.Connection.RemoteAddress()
		}
	}
	z.sugar.Infow("request",
		"remote", remote,
		"method", method,
		"path", path,
		"status", r.Status.Code,
		"service_time", r.ServiceTime,
		"worker", r.WorkerID,
	)
}

// Error logs a failure that occurred outside a full request/response
// exchange (transport, parse, or policy).
func (z *ZapLog) Error(err error, context string) {
	z.sugar.Errorw(context, "error", err)
}

// Sync flushes any buffered log entries; call before process exit.
func (z *ZapLog) Sync() error {
	return z.sugar.Sync()
}
