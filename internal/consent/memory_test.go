package consent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calluna/finsight/internal/common"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	t.Run("no record is an explicit error", func(t *testing.T) {
		granted, err := store.HasConsent(ctx, "stranger")
		require.ErrorIs(t, err, common.ErrNoConsentRecord)
		assert.False(t, granted)
	})

	t.Run("grant then check", func(t *testing.T) {
		require.NoError(t, store.SetConsent(ctx, "user-1", true))
		granted, err := store.HasConsent(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("revoke is a decision not an absence", func(t *testing.T) {
		require.NoError(t, store.SetConsent(ctx, "user-2", true))
		require.NoError(t, store.RevokeConsent(ctx, "user-2"))

		granted, err := store.HasConsent(ctx, "user-2")
		require.NoError(t, err)
		assert.False(t, granted)
	})
}

func TestGrantIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	t.Run("absent users are granted", func(t *testing.T) {
		require.NoError(t, GrantIfAbsent(ctx, store, "user-new"))
		granted, err := store.HasConsent(ctx, "user-new")
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("a revocation is never overwritten", func(t *testing.T) {
		require.NoError(t, store.RevokeConsent(ctx, "user-revoked"))
		require.NoError(t, GrantIfAbsent(ctx, store, "user-revoked"))

		granted, err := store.HasConsent(ctx, "user-revoked")
		require.NoError(t, err)
		assert.False(t, granted, "an explicit opt-out must survive subsequent runs")
	})

	t.Run("an existing grant is left alone", func(t *testing.T) {
		require.NoError(t, store.SetConsent(ctx, "user-granted", true))
		require.NoError(t, GrantIfAbsent(ctx, store, "user-granted"))

		granted, err := store.HasConsent(ctx, "user-granted")
		require.NoError(t, err)
		assert.True(t, granted)
	})
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10 * time.Millisecond)

	require.NoError(t, store.SetConsent(ctx, "user-1", true))
	time.Sleep(30 * time.Millisecond)

	_, err := store.HasConsent(ctx, "user-1")
	assert.ErrorIs(t, err, common.ErrNoConsentRecord, "expired consent must be re-collected")
}
