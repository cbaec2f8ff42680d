package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{
		"debug": "DEBUG",
		"INFO":  "INFO",
		"Warn":  "WARN",
		"error": "ERROR",
		"FATAL": "FATAL",
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, "level %q", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewZapLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewZapLogger("verbose")
	assert.Error(t, err)
}

func TestNewZapLoggerAcceptsLowercaseLevel(t *testing.T) {
	logger, err := NewZapLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
