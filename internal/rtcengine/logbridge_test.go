package rtcengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFactoryLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFactory(zap.New(core)).NewLogger("ice")

	l.Trace("dropped")
	l.Debugf("debug %d", 1)
	l.Info("info")
	l.Warnf("warn %s", "x")
	l.Error("error")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 4) {
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, "debug 1", entries[0].Message)
		assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
		assert.Equal(t, "info", entries[1].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
		assert.Equal(t, "warn x", entries[2].Message)
		assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
		assert.Equal(t, "ice", entries[0].ContextMap()["scope"])
	}
}

func TestLoggerFactoryInfoHiddenAtInfoLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLoggerFactory(zap.New(core)).NewLogger("ice")

	l.Infof("candidate %d", 1)
	l.Warn("warn")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "warn", entries[0].Message)
	}
}

func TestLoggerFactoryTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := NewLoggerFactory(zap.New(core))
	f.Trace = true
	f.NewLogger("dtls").Tracef("packet %d", 7)

	assert.Equal(t, 1, logs.FilterMessage("packet 7").Len())
}

func TestLoggerFactoryNil(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLoggerFactory(nil).NewLogger("x").Error("ignored")
	})
}
