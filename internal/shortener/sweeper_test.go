package shortener_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	links := store.NewMemoryStore().Links()
	org := uuid.New()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	addLink(t, links, shortener.Link{OrganizationID: org, Code: "old", OriginalURL: "https://example.com", Active: true, ExpiresAt: &past})
	addLink(t, links, shortener.Link{OrganizationID: org, Code: "new", OriginalURL: "https://example.com", Active: true, ExpiresAt: &future})
	addLink(t, links, shortener.Link{OrganizationID: org, Code: "forever", OriginalURL: "https://example.com", Active: true})

	sweeper := shortener.NewSweeper(links, time.Hour, zap.NewNop())

	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second pass has nothing left to do")

	old, err := links.FindByCode(ctx, "old", &org)
	require.NoError(t, err)
	assert.False(t, old.Active)

	_, err = shortener.NewResolver(links).Resolve(ctx, "old", nil)
	assert.ErrorIs(t, err, shortener.ErrExpired, "swept links still report expiry")
}

func TestSweeper_Lifecycle(t *testing.T) {
	links := store.NewMemoryStore().Links()
	org := uuid.New()
	past := time.Now().Add(-time.Minute)

	addLink(t, links, shortener.Link{OrganizationID: org, Code: "old", OriginalURL: "https://example.com", Active: true, ExpiresAt: &past})

	sweeper := shortener.NewSweeper(links, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, sweeper.Start(context.Background()))

	assert.Eventually(t, func() bool {
		link, err := links.FindByCode(context.Background(), "old", &org)

		return err == nil && !link.Active
	}, time.Second, 10*time.Millisecond)

	assert.NoError(t, sweeper.Shutdown())
}

func TestSweeper_ShutdownWithoutStart(t *testing.T) {
	sweeper := shortener.NewSweeper(store.NewMemoryStore().Links(), time.Hour, zap.NewNop())

	assert.NoError(t, sweeper.Shutdown())
}
