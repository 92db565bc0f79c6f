package repository

import (
	"context"
	"testing"
	"time"

	"schedula/internal/config"
	"schedula/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSelection(clientKey string) *models.Selection {
	return &models.Selection{
		ClientKey: clientKey,
		Candidates: []models.SelectionCandidate{
			{BookingID: "b1", Title: "Standup"},
			{BookingID: "b2", Title: "Team sync"},
		},
		CreatedAt: time.Date(2025, 7, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisSelectionStore(t *testing.T) {
	s := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	store := NewRedisSelectionStore(client, time.Minute)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, store.SetSelection(ctx, sampleSelection("c1")))

		got, err := store.GetSelection(ctx, "c1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "c1", got.ClientKey)
		require.Len(t, got.Candidates, 2)
		assert.Equal(t, "b2", got.Candidates[1].BookingID)
		assert.True(t, s.Exists("selection:c1"))
	})

	t.Run("Missing", func(t *testing.T) {
		got, err := store.GetSelection(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Expires", func(t *testing.T) {
		require.NoError(t, store.SetSelection(ctx, sampleSelection("c2")))
		s.FastForward(2 * time.Minute)

		got, err := store.GetSelection(ctx, "c2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.SetSelection(ctx, sampleSelection("c3")))
		require.NoError(t, store.ClearSelection(ctx, "c3"))

		got, err := store.GetSelection(ctx, "c3")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptValue", func(t *testing.T) {
		require.NoError(t, s.Set("selection:bad", "{not json"))
		_, err := store.GetSelection(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("RateLimit", func(t *testing.T) {
		window := time.Second

		for i := 0; i < 2; i++ {
			allowed, err := store.CheckRateLimit(ctx, "tg:1", 2, window)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := store.CheckRateLimit(ctx, "tg:1", 2, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = store.CheckRateLimit(ctx, "tg:1", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})
}

func TestRedisSelectionStoreNilClient(t *testing.T) {
	store := NewRedisSelectionStore(nil, time.Hour)
	ctx := context.Background()

	_, err := store.GetSelection(ctx, "c1")
	assert.ErrorIs(t, err, errNilClient)
	assert.ErrorIs(t, store.SetSelection(ctx, sampleSelection("c1")), errNilClient)
	assert.ErrorIs(t, store.ClearSelection(ctx, "c1"), errNilClient)
	_, err = store.CheckRateLimit(ctx, "k", 1, time.Second)
	assert.ErrorIs(t, err, errNilClient)
}
