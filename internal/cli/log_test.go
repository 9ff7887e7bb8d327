package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{name: "info at info", level: log.InfoLevel, emit: func(l *log.Logger) { l.Info("serving") }, want: true},
		{name: "debug at info", level: log.InfoLevel, emit: func(l *log.Logger) { l.Debug("cache hit") }, want: false},
		{name: "debug at debug", level: log.DebugLevel, emit: func(l *log.Logger) { l.Debug("cache hit") }, want: true},
		{name: "warn at info", level: log.InfoLevel, emit: func(l *log.Logger) { l.Warn("retrying") }, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("logged = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Fetched 3 languages")

	out := buf.String()
	if !strings.Contains(out, "Fetched 3 languages (") || !strings.Contains(out, "ms)") {
		t.Errorf("progress output = %q, want message with elapsed time", out)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}

	custom := newLogger(&bytes.Buffer{}, log.DebugLevel)
	ctx := withLogger(context.Background(), custom)
	if loggerFromContext(ctx) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)
	ctx := context.Background()

	(&logHTTPHooks{logger: logger}).OnResponse(ctx, "GET", "godbolt.org", "/api/languages", 200, 120*time.Millisecond)
	(&logCacheHooks{logger: logger}).OnCacheMiss(ctx, "http")
	(&logToolHooks{logger: logger}).OnToolComplete(ctx, "compile_check", "call-1", time.Second, errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"http response", "/api/languages", "cache miss", "tool error", "compile_check", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestDebugHooksSilentAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	(&logCacheHooks{logger: logger}).OnCacheHit(context.Background(), "http")
	(&logToolHooks{logger: logger}).OnToolStart(context.Background(), "get_languages", "call-2")

	if buf.Len() != 0 {
		t.Errorf("debug hooks logged at info level: %q", buf.String())
	}
}
