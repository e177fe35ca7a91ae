package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_Children(t *testing.T) {
	logger := testutil.NewMockLogger()

	child := logger.Named("docstore").Named("cache").With(logging.String("slug", "nox"))
	child.Warn("miss", logging.Int("n", 2))

	msg, ok := logger.Find("warn", "miss")
	require.True(t, ok)
	assert.Equal(t, "docstore.cache", msg.Logger)
	v, ok := msg.Field("slug")
	require.True(t, ok)
	assert.Equal(t, "nox", v)
	v, _ = msg.Field("n")
	assert.Equal(t, 2, v)

	_, ok = msg.Field("absent")
	assert.False(t, ok)
}

//Personal.AI order the ending
