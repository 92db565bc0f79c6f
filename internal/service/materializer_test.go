package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"schedula/internal/database"
	"schedula/internal/intent"
	"schedula/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createIntent(title string, start, end time.Time, response string) intent.Intent {
	return intent.Intent{
		Kind:     intent.KindCreate,
		Name:     intent.NameCreate,
		Draft:    &intent.Draft{Title: title, Start: start, End: end},
		Response: response,
	}
}

func TestMaterializeChatIsPassThrough(t *testing.T) {
	repo := new(mockRepo)
	m := NewMaterializer(repo, time.UTC, nopLogger())

	out := m.Materialize(context.Background(), intent.Intent{Kind: intent.KindChat, Response: "hi"})
	assert.Equal(t, Outcome{Response: "hi"}, out)
	repo.AssertExpectations(t)
}

func TestMaterializeCreate(t *testing.T) {
	repo := new(mockRepo)
	m := NewMaterializer(repo, time.UTC, nopLogger())
	ctx := context.Background()

	start := time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	repo.On("CreateBooking", ctx, mock.MatchedBy(func(b *models.Booking) bool {
		return b.Title == "Gen AI training" && b.StartTime.Equal(start) && b.EndTime.Equal(end) &&
			b.Status == models.StatusConfirmed
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Booking).ID = "new-id"
	}).Return(nil).Twice()

	out := m.Materialize(ctx, createIntent("Gen AI training", start, end, ""))
	require.True(t, out.Mutated)
	require.NoError(t, out.Err)
	assert.Equal(t, "new-id", out.Booking.ID)
	assert.Equal(t, `Successfully scheduled "Gen AI training" from 7/8/2025, 9:00:00 AM to 7/8/2025, 1:00:00 PM`, out.Response)

	out = m.Materialize(ctx, createIntent("Gen AI training", start, end, "custom"))
	assert.Equal(t, "custom", out.Response)

	repo.AssertExpectations(t)
}

func TestMaterializeCreateRejectsBadDrafts(t *testing.T) {
	repo := new(mockRepo)
	m := NewMaterializer(repo, time.UTC, nopLogger())
	ctx := context.Background()
	start := time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC)

	out := m.Materialize(ctx, createIntent("x", start, start, "confirm?"))
	assert.False(t, out.Mutated)
	assert.ErrorIs(t, out.Err, ErrInvalidRange)
	assert.Equal(t, "confirm?", out.Response)

	out = m.Materialize(ctx, createIntent("  ", start, start.Add(time.Hour), ""))
	assert.ErrorIs(t, out.Err, ErrEmptyTitle)
	assert.Equal(t, intent.TextMutationFailed, out.Response)

	out = m.Materialize(ctx, intent.Intent{Kind: intent.KindCreate})
	assert.ErrorIs(t, out.Err, ErrEmptyTitle)

	repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestMaterializeUpdate(t *testing.T) {
	db := setupDB(t)
	m := NewMaterializer(db, time.UTC, nopLogger())
	ctx := context.Background()

	start := time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC)
	b := &models.Booking{Title: "old", StartTime: start, EndTime: start.Add(time.Hour)}
	require.NoError(t, db.CreateBooking(ctx, b))

	out := m.Materialize(ctx, intent.Intent{
		Kind:  intent.KindUpdate,
		Draft: &intent.Draft{ID: b.ID, Title: "new", Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
	})
	require.True(t, out.Mutated)
	assert.Equal(t, `Successfully updated "new"`, out.Response)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.True(t, got.StartTime.Equal(start.Add(time.Hour)))

	out = m.Materialize(ctx, intent.Intent{
		Kind:  intent.KindUpdate,
		Draft: &intent.Draft{ID: "missing", Title: "new", Start: start, End: start.Add(time.Hour)},
	})
	assert.False(t, out.Mutated)
	assert.ErrorIs(t, out.Err, database.ErrBookingNotFound)

	out = m.Materialize(ctx, intent.Intent{
		Kind:  intent.KindUpdate,
		Draft: &intent.Draft{Title: "new", Start: start, End: start.Add(time.Hour)},
	})
	assert.ErrorIs(t, out.Err, ErrNoBookingID)
}

func TestMaterializeDelete(t *testing.T) {
	repo := new(mockRepo)
	m := NewMaterializer(repo, time.UTC, nopLogger())
	ctx := context.Background()

	repo.On("DeleteBooking", ctx, "b1").Return(nil).Once()
	repo.On("DeleteBooking", ctx, "gone").Return(database.ErrBookingNotFound).Once()

	out := m.Materialize(ctx, intent.Intent{Kind: intent.KindDelete, BookingID: "b1"})
	assert.True(t, out.Mutated)
	assert.Equal(t, "Successfully deleted the booking", out.Response)
	assert.Nil(t, out.Booking)

	out = m.Materialize(ctx, intent.Intent{Kind: intent.KindDelete, BookingID: "gone"})
	assert.False(t, out.Mutated)
	assert.Equal(t, intent.TextMutationFailed, out.Response)
	assert.True(t, errors.Is(out.Err, database.ErrBookingNotFound))

	out = m.Materialize(ctx, intent.Intent{Kind: intent.KindDelete})
	assert.ErrorIs(t, out.Err, ErrNoBookingID)

	repo.AssertExpectations(t)
}

func TestMaterializerWithoutLoggerDegrades(t *testing.T) {
	repo := new(mockRepo)
	m := NewMaterializer(repo, nil, nil)
	start := time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC)

	var out Outcome
	assert.NotPanics(t, func() {
		out = m.Materialize(context.Background(), createIntent("x", start, start, "confirm?"))
	})
	assert.False(t, out.Mutated)
	assert.ErrorIs(t, out.Err, ErrInvalidRange)
	repo.AssertExpectations(t)
}
