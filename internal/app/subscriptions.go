package app

import (
	"context"

	"schedula/internal/domain"
	"schedula/internal/events"
	"schedula/internal/models"
	"schedula/internal/worker"

	"github.com/rs/zerolog"
)

type bookingGetter interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
}

// SubscribeBookingEvents logs every booking change and, when a sync worker
// is given, mirrors it to the spreadsheet.
func SubscribeBookingEvents(
	ctx context.Context,
	bus *events.EventBus,
	bookings bookingGetter,
	syncWorker domain.SyncWorker,
	logger *zerolog.Logger,
) {
	if bus == nil {
		return
	}

	bus.OnError(func(ev *events.Event, err error) {
		logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: handler failed")
	})

	audit := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", payload.BookingID).
			Str("title", payload.Title).
			Str("client", payload.ClientKey).
			Msg("booking changed")
		return nil
	}
	bus.Subscribe(audit, events.EventBookingCreated, events.EventBookingUpdated, events.EventBookingDeleted)

	if syncWorker == nil {
		return
	}

	upsert := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		// свежая строка из БД, снимок из события только если её уже нет
		booking, err := bookings.GetBooking(ctx, payload.BookingID)
		if err != nil {
			snapshot, ok := payload.Booking()
			if !ok {
				return err
			}
			logger.Warn().Err(err).Str("booking_id", payload.BookingID).Msg("event bus: using event snapshot")
			booking = snapshot
		}
		return syncWorker.EnqueueTask(ctx, worker.TaskUpsert, payload.BookingID, booking)
	}

	remove := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		return syncWorker.EnqueueTask(ctx, worker.TaskDelete, payload.BookingID, nil)
	}

	bus.Subscribe(upsert, events.EventBookingCreated, events.EventBookingUpdated)
	bus.Subscribe(remove, events.EventBookingDeleted)
}
