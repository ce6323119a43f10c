package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevelFiltering(t *testing.T) {
	SetLogLevel(LevelWarn)
	defer SetLogLevel(LevelWarn)

	var buf bytes.Buffer
	l := New("test", &buf)

	l.Infof("filtered %d", 1)
	assert.Empty(t, buf.String())

	l.Warnf("kept %d", 2)
	out := buf.String()
	assert.Contains(t, out, "Warn")
	assert.Contains(t, out, "kept 2")
	assert.Contains(t, out, "test")
}

func TestLoggerTraceLevel(t *testing.T) {
	SetLogLevel(LevelTrace)
	defer SetLogLevel(LevelWarn)

	var buf bytes.Buffer
	l := New("", &buf)
	l.Tracef("deep detail")
	l.Debugf("debugging")
	l.Errorf("boom")

	out := buf.String()
	assert.Contains(t, out, "deep detail")
	assert.Contains(t, out, "debugging")
	assert.Contains(t, out, "boom")
}
