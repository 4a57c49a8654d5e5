package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLogger_VerboseSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Verbose("connecting to %s", "db.example.com")

	assert.Empty(t, buf.String())
}

func TestConsoleLogger_VerboseEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)

	logger.Verbose("connecting to %s", "db.example.com")

	assert.Equal(t, "[VERBOSE] connecting to db.example.com\n", buf.String())
}

func TestConsoleLogger_InfoAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Info("retrying in %s", "1s")
	logger.Error("gave up after %d attempts", 3)

	assert.Equal(t, "retrying in 1s\n[ERROR] gave up after 3 attempts\n", buf.String())
}

func TestConsoleLogger_LiteralPercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Info("progress 100%")

	assert.Equal(t, "progress 100%\n", buf.String())
}

func TestNullLogger_DiscardsEverything(t *testing.T) {
	logger := NewNullLogger()
	logger.Verbose("v")
	logger.Info("i")
	logger.Error("e")
}
