package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	return m.shutdownErr
}

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts all consumers", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		clicks := &mockRunnable{}
		sweeper := &mockRunnable{}

		group.Add(clicks)
		group.Add(sweeper)

		err := group.Start(context.Background())

		require.NoError(t, err)
		assert.True(t, clicks.started)
		assert.True(t, sweeper.started)
	})

	t.Run("stops started members when one fails", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		clicks := &mockRunnable{}
		sweeper := &mockRunnable{startErr: errors.New("redis stream unavailable")}

		group.Add(clicks)
		group.Add(sweeper)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.True(t, clicks.started)
		assert.True(t, clicks.shutdown)
		assert.False(t, sweeper.started)
	})
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("shuts down all consumers", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		clicks := &mockRunnable{}
		sweeper := &mockRunnable{}

		group.Add(clicks)
		group.Add(sweeper)
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.NoError(t, err)
		assert.True(t, clicks.shutdown)
		assert.True(t, sweeper.shutdown)
	})

	t.Run("joins errors and stops every member", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		clicks := &mockRunnable{shutdownErr: errors.New("clicks: flush failed")}
		sweeper := &mockRunnable{shutdownErr: errors.New("sweeper: still running")}

		group.Add(clicks)
		group.Add(sweeper)
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "clicks: flush failed")
		assert.Contains(t, err.Error(), "sweeper: still running")
		assert.True(t, clicks.shutdown)
		assert.True(t, sweeper.shutdown)
	})
}

func TestConsumerGroup_WithoutSubscriber(t *testing.T) {
	group := messaging.NewConsumerGroup(nil, zap.NewNop())
	worker := &mockRunnable{}

	group.Add(worker)

	require.NoError(t, group.Start(context.Background()))
	require.NoError(t, group.Shutdown())
	assert.True(t, worker.shutdown)
}

type orderedRunnable struct {
	name string
	log  *[]string
}

func (r *orderedRunnable) Start(context.Context) error {
	*r.log = append(*r.log, "start "+r.name)

	return nil
}

func (r *orderedRunnable) Shutdown() error {
	*r.log = append(*r.log, "stop "+r.name)

	return nil
}

func TestConsumerGroup_Order(t *testing.T) {
	var log []string

	group := messaging.NewConsumerGroup(nil, zap.NewNop())
	group.Add(&orderedRunnable{name: "clicks", log: &log})
	group.Add(&orderedRunnable{name: "sweeper", log: &log})

	require.NoError(t, group.Start(context.Background()))
	require.NoError(t, group.Shutdown())

	assert.Equal(t, []string{"start clicks", "start sweeper", "stop sweeper", "stop clicks"}, log)
}

func TestConsumerGroup_ShutdownBeforeStart(t *testing.T) {
	worker := &mockRunnable{}
	group := messaging.NewConsumerGroup(nil, zap.NewNop())
	group.Add(worker)

	require.NoError(t, group.Shutdown())
	assert.False(t, worker.shutdown, "members that never started are not stopped")
}
