package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"schedula/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	conv := &models.ChatConversation{Message: "hello", Response: "hi"}
	require.NoError(t, db.CreateConversation(ctx, conv))
	assert.NotEmpty(t, conv.ID)
	assert.False(t, conv.Timestamp.IsZero())

	total, err := db.CountConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, db.DeleteConversation(ctx, conv.ID))
	assert.ErrorIs(t, db.DeleteConversation(ctx, conv.ID), ErrConversationNotFound)
}

func TestListConversationsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.CreateConversation(ctx, &models.ChatConversation{
			Message:   fmt.Sprintf("m%d", i),
			Response:  "r",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := db.ListConversations(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "m4", page[0].Message)
	assert.Equal(t, "m3", page[1].Message)

	page, err = db.ListConversations(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "m0", page[0].Message)

	page, err = db.ListConversations(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}
