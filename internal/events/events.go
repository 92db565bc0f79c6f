package events

import (
	"encoding/json"
	"sync"
	"time"

	"schedula/internal/models"
)

const (
	EventBookingCreated = "booking_created"
	EventBookingUpdated = "booking_updated"
	EventBookingDeleted = "booking_deleted"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID string     `json:"booking_id"`
	Title     string     `json:"title,omitempty"`
	Status    string     `json:"status,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	ClientKey string     `json:"client_key,omitempty"`
}

// NewBookingPayload snapshots b. b may be nil for deletions.
func NewBookingPayload(bookingID string, b *models.Booking, clientKey string) BookingEventPayload {
	p := BookingEventPayload{BookingID: bookingID, ClientKey: clientKey}
	if b != nil {
		start, end := b.StartTime, b.EndTime
		p.Title = b.Title
		p.Status = string(b.Status)
		p.StartTime = &start
		p.EndTime = &end
	}
	return p
}

// Booking restores the snapshot. ok is false for deletion payloads.
func (p BookingEventPayload) Booking() (*models.Booking, bool) {
	if p.StartTime == nil || p.EndTime == nil {
		return nil, false
	}
	return &models.Booking{
		ID:        p.BookingID,
		Title:     p.Title,
		Status:    models.BookingStatus(p.Status),
		StartTime: *p.StartTime,
		EndTime:   *p.EndTime,
	}, true
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	onError     func(event *Event, err error)
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError installs a hook for handler failures.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for the given event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// Publish runs subscribers synchronously in registration order.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
