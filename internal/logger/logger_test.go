package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	log := NewLogger(true)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))

	log = NewLogger(false)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}

func TestNewLoggerWithLevel(t *testing.T) {
	log, err := NewLoggerWithLevel("warn")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))

	_, err = NewLoggerWithLevel("loud")
	assert.Error(t, err)
}
