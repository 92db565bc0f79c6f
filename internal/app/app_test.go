package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"schedula/internal/config"
	"schedula/internal/events"
	"schedula/internal/models"
	"schedula/internal/repository"
	"schedula/internal/worker"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database:  config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "data", "schedula.db")},
		Assistant: config.AssistantConfig{Timezone: "UTC", SelectionTTL: time.Minute},
		Exports:   config.ExportConfig{MaxRangeDays: 31},
	}
}

type enqueued struct {
	taskType  string
	bookingID string
	booking   *models.Booking
}

type fakeWorker struct {
	mu    sync.Mutex
	tasks []enqueued
	err   error
}

func (f *fakeWorker) EnqueueTask(_ context.Context, taskType, bookingID string, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, enqueued{taskType: taskType, bookingID: bookingID, booking: booking})
	return f.err
}

type fakeBookings map[string]*models.Booking

func (f fakeBookings) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	if b, ok := f[id]; ok {
		return b, nil
	}
	return nil, errors.New("booking not found")
}

func TestNewWithoutRedis(t *testing.T) {
	rt, err := New(context.Background(), testConfig(t), nopLogger())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	assert.Nil(t, rt.Redis)
	assert.Nil(t, rt.Worker)
	assert.IsType(t, &repository.MemorySelectionStore{}, rt.Selections)
	assert.Equal(t, time.UTC, rt.Location)

	reply, err := rt.Chat.Reply(context.Background(), "c1", "show my bookings")
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "You don't have any bookings")
	require.NoError(t, rt.DB.Ready(context.Background()))
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Address = mr.Addr()

	rt, err := New(context.Background(), cfg, nopLogger())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	require.NotNil(t, rt.Redis)
	assert.IsType(t, &repository.FailoverSelectionStore{}, rt.Selections)

	start := time.Now().Add(24 * time.Hour)
	require.NoError(t, rt.DB.CreateBooking(context.Background(), &models.Booking{Title: "standup", StartTime: start, EndTime: start.Add(time.Hour)}))

	_, err = rt.Chat.Reply(context.Background(), "c1", "cancel something")
	require.NoError(t, err)
	assert.True(t, mr.Exists("selection:c1"))
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Assistant.Timezone = "Mars/Olympus"

	_, err := New(context.Background(), cfg, nopLogger())
	assert.Error(t, err)
}

func TestSubscribeBookingEvents(t *testing.T) {
	bus := events.NewEventBus()
	w := &fakeWorker{}
	stored := &models.Booking{ID: "b1", Title: "demo", ClientName: strPtr("Ann")}
	SubscribeBookingEvents(context.Background(), bus, fakeBookings{"b1": stored}, w, nopLogger())

	start := time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC)
	snapshot := &models.Booking{ID: "b2", Title: "gone", StartTime: start, EndTime: start.Add(time.Hour)}

	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.NewBookingPayload("b1", stored, "c1")))
	require.NoError(t, bus.PublishJSON(events.EventBookingUpdated, events.NewBookingPayload("b2", snapshot, "c1")))
	require.NoError(t, bus.PublishJSON(events.EventBookingDeleted, events.NewBookingPayload("b1", nil, "c1")))

	require.Len(t, w.tasks, 3)
	assert.Equal(t, worker.TaskUpsert, w.tasks[0].taskType)
	assert.Same(t, stored, w.tasks[0].booking)

	// строки нет в БД: берём снимок из события
	assert.Equal(t, "b2", w.tasks[1].booking.ID)
	assert.Equal(t, start, w.tasks[1].booking.StartTime)

	assert.Equal(t, enqueued{taskType: worker.TaskDelete, bookingID: "b1"}, w.tasks[2])
}

func TestSubscribeBookingEventsReportsErrors(t *testing.T) {
	bus := events.NewEventBus()
	w := &fakeWorker{err: errors.New("queue down")}
	SubscribeBookingEvents(context.Background(), bus, fakeBookings{}, w, nopLogger())

	var failed []string
	bus.OnError(func(ev *events.Event, err error) {
		failed = append(failed, ev.Type)
	})

	// без снимка и без строки в БД задача не ставится
	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.NewBookingPayload("missing", nil, "")))
	require.NoError(t, bus.PublishJSON(events.EventBookingDeleted, events.NewBookingPayload("x", nil, "")))

	assert.Len(t, w.tasks, 1)
	assert.Equal(t, []string{events.EventBookingCreated, events.EventBookingDeleted}, failed)
}

func TestSubscribeWithoutWorkerOnlyAudits(t *testing.T) {
	bus := events.NewEventBus()
	SubscribeBookingEvents(context.Background(), bus, fakeBookings{}, nil, nopLogger())

	assert.NotPanics(t, func() {
		_ = bus.PublishJSON(events.EventBookingDeleted, events.NewBookingPayload("x", nil, ""))
	})
}

func strPtr(s string) *string { return &s }
