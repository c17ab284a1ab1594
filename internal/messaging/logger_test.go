package messaging_test

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := messaging.NewZapAdapter(zap.New(core))

	adapter.Info("subscribed", watermill.LogFields{"topic": "link.clicked"})
	adapter.Error("read failed", errors.New("eof"), nil)
	adapter.Trace("polling", nil)
	adapter.With(watermill.LogFields{"consumer_group": "analytics"}).Debug("claimed", nil)

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "link.clicked", entries[0].ContextMap()["topic"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "eof", entries[1].ContextMap()["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)

	assert.Equal(t, "claimed", entries[3].Message)
	assert.Equal(t, "analytics", entries[3].ContextMap()["consumer_group"])
}
