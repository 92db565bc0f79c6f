package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"schedula/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleSeed = `
bookings:
  - id: gen-ai
    title: Gen AI training
    start: "2025-07-08 09:00"
    end: "2025-07-08 13:00"
    client_name: Ann
  - title: standup
    start: "2025-07-09 10:00"
    end: "2025-07-09 10:15"
    status: PENDING
`

func TestSeedCreatesThenUpdates(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "seed.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var file seedFile
	require.NoError(t, yaml.Unmarshal([]byte(sampleSeed), &file))
	ctx := context.Background()

	created, updated, err := seed(ctx, db, file.Bookings, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)

	got, err := db.GetBooking(ctx, "gen-ai")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC), got.StartTime.UTC())
	require.NotNil(t, got.ClientName)
	assert.Equal(t, "Ann", *got.ClientName)

	file.Bookings[0].Title = "Gen AI training (moved)"
	created, updated, err = seed(ctx, db, file.Bookings[:1], time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)

	got, err = db.GetBooking(ctx, "gen-ai")
	require.NoError(t, err)
	assert.Equal(t, "Gen AI training (moved)", got.Title)
}

func TestSeedEntryValidation(t *testing.T) {
	cases := []seedEntry{
		{Start: "2025-07-08 09:00", End: "2025-07-08 10:00"},
		{Title: "x", Start: "tomorrow", End: "2025-07-08 10:00"},
		{Title: "x", Start: "2025-07-08 09:00", End: "2025-07-08 09:00"},
	}
	for _, c := range cases {
		_, err := c.toBooking(time.UTC)
		assert.Error(t, err, c)
	}

	b, err := seedEntry{Title: "x", Start: "2025-07-08 09:00", End: "2025-07-08 10:00"}.toBooking(time.UTC)
	require.NoError(t, err)
	assert.Nil(t, b.Description)
}
