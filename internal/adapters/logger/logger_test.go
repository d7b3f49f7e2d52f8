package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	lg, ok := logger.New().(*logger.Logger)
	require.True(t, ok)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(*logger.Logger)
		level string
		msg   string
	}{
		{name: "info", log: func(l *logger.Logger) { l.Info("compiled") }, level: "INFO", msg: "compiled"},
		{name: "warn", log: func(l *logger.Logger) { l.Warn("slow") }, level: "WARN", msg: "slow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)
			assert.Contains(t, buf.String(), "level="+tt.level)
			assert.Contains(t, buf.String(), tt.msg)
		})
	}
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(errors.New("boom"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "boom", record["error"])
}

func TestFormatError(t *testing.T) {
	base := zerr.New("file not found")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain",
			err:  errors.New("boom"),
			want: "Error: boom",
		},
		{
			name: "chain with metadata",
			err:  zerr.With(zerr.Wrap(base, "failed to read main file"), "path", "main.qd"),
			want: "Error: failed to read main file (path=main.qd)\n\n  Caused by:\n    → file not found",
		},
		{
			name: "metadata on a standard error",
			err:  zerr.Wrap(zerr.With(errors.New("denied"), "path", "x"), "open"),
			want: "Error: open\n\n  Caused by:\n    → denied (path=x)",
		},
		{
			name: "multiline message",
			err:  errors.New("first\nsecond"),
			want: "Error: first\n       second",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.CollectAndFormat(tt.err))
		})
	}
}
