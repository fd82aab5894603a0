package rtcengine

import (
	"github.com/pion/logging"
	"go.uber.org/zap"
)

// LoggerFactory routes pion's internal logs into a zap logger. Hand it to the
// component that builds the engine instead of installing a global hook.
type LoggerFactory struct {
	logger *zap.Logger
	// Trace forwards pion's trace level as zap debug. Off by default: ICE and
	// DTLS tracing floods the log.
	Trace bool
}

// NewLoggerFactory wraps logger. A nil logger discards engine logs.
func NewLoggerFactory(logger *zap.Logger) *LoggerFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerFactory{logger: logger}
}

// NewLogger implements logging.LoggerFactory.
func (f *LoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &leveledLogger{
		sugar: f.logger.With(zap.String("scope", scope)).Sugar(),
		trace: f.Trace,
	}
}

var _ logging.LoggerFactory = (*LoggerFactory)(nil)

type leveledLogger struct {
	sugar *zap.SugaredLogger
	trace bool
}

func (l *leveledLogger) Trace(msg string) {
	if l.trace {
		l.sugar.Debug(msg)
	}
}

func (l *leveledLogger) Tracef(format string, args ...interface{}) {
	if l.trace {
		l.sugar.Debugf(format, args...)
	}
}

// Engine info chatter (ICE and DTLS state) is demoted to debug.
func (l *leveledLogger) Info(msg string)                          { l.sugar.Debug(msg) }
func (l *leveledLogger) Infof(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

func (l *leveledLogger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *leveledLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *leveledLogger) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *leveledLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *leveledLogger) Error(msg string)                          { l.sugar.Error(msg) }
func (l *leveledLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
