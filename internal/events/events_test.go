package events

import (
	"errors"
	"testing"
	"time"

	"schedula/internal/models"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(func(event *Event) error {
		received = event
		callCount++
		return nil
	}, EventBookingCreated)

	start := time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{ID: "b1", Title: "demo", Status: models.StatusConfirmed, StartTime: start, EndTime: start.Add(time.Hour)}
	if err := bus.PublishJSON(EventBookingCreated, NewBookingPayload(booking.ID, booking, "c1")); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}

	var decoded BookingEventPayload
	if err := received.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	got, ok := decoded.Booking()
	if !ok {
		t.Fatal("expected booking snapshot")
	}
	if got.Title != "demo" || !got.StartTime.Equal(start) || got.Status != models.StatusConfirmed {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestDeletePayloadHasNoBooking(t *testing.T) {
	p := NewBookingPayload("b1", nil, "")
	if _, ok := p.Booking(); ok {
		t.Error("delete payload must not restore a booking")
	}
}

func TestEventBusMultipleTypes(t *testing.T) {
	bus := NewEventBus()
	var count int

	bus.Subscribe(func(_ *Event) error { count++; return nil }, EventBookingCreated, EventBookingDeleted)

	_ = bus.PublishJSON(EventBookingCreated, map[string]string{})
	_ = bus.PublishJSON(EventBookingDeleted, map[string]string{})
	_ = bus.PublishJSON(EventBookingUpdated, map[string]string{})

	if count != 2 {
		t.Errorf("expected 2 calls, got %d", count)
	}
}

func TestEventBusOnError(t *testing.T) {
	bus := NewEventBus()
	var failed string

	bus.OnError(func(event *Event, err error) { failed = event.Type + ":" + err.Error() })
	bus.Subscribe(func(_ *Event) error { return errors.New("boom") }, EventBookingUpdated)

	_ = bus.PublishJSON(EventBookingUpdated, struct{}{})
	if failed != EventBookingUpdated+":boom" {
		t.Errorf("unexpected error hook value %q", failed)
	}
}

func TestNilBusPublish(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventBookingCreated, struct{}{}); err != nil {
		t.Errorf("nil bus should ignore publish, got %v", err)
	}
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	if err := bus.PublishJSON(EventBookingCreated, make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}
