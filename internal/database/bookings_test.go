package database

import (
	"context"
	"testing"
	"time"

	"schedula/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(title string, start time.Time) *models.Booking {
	return &models.Booking{
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

func TestBookingCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2025, 7, 8, 14, 0, 0, 0, time.UTC)
	b := newBooking("Team sync", start)
	require.NoError(t, db.CreateBooking(ctx, b))

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.False(t, b.CreatedAt.IsZero())

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team sync", got.Title)
	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.EndTime.Equal(start.Add(time.Hour)))
	assert.Nil(t, got.Description)

	desc := "weekly"
	got.Title = "Team sync v2"
	got.Description = &desc
	require.NoError(t, db.UpdateBooking(ctx, got))

	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team sync v2", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "weekly", *got.Description)

	require.NoError(t, db.DeleteBooking(ctx, b.ID))
	_, err = db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingNotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, db.DeleteBooking(ctx, "missing"), ErrBookingNotFound)

	b := newBooking("ghost", time.Now())
	b.ID = "missing"
	assert.ErrorIs(t, db.UpdateBooking(ctx, b), ErrBookingNotFound)
}

func TestCreateBookingRejectsUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	b := newBooking("x", time.Now())
	b.Status = "DONE"
	assert.Error(t, db.CreateBooking(context.Background(), b))
}

func TestListBookingsOrderedByStart(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateBooking(ctx, newBooking("third", base.Add(48*time.Hour))))
	require.NoError(t, db.CreateBooking(ctx, newBooking("first", base)))
	require.NoError(t, db.CreateBooking(ctx, newBooking("second", base.Add(3*time.Hour))))

	list, err := db.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
	assert.Equal(t, "third", list[2].Title)
}

func TestListBookingsEmpty(t *testing.T) {
	db := setupTestDB(t)
	list, err := db.ListBookings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGetBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateBooking(ctx, newBooking("before", day.Add(-time.Hour))))
	require.NoError(t, db.CreateBooking(ctx, newBooking("inside", day.Add(10*time.Hour))))
	require.NoError(t, db.CreateBooking(ctx, newBooking("after", day.Add(24*time.Hour))))

	list, err := db.GetBookingsByDateRange(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "inside", list[0].Title)
}
