package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedula/internal/domain"
	"schedula/internal/intent"
	"schedula/internal/metrics"
	"schedula/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyTitle   = errors.New("booking title is empty")
	ErrInvalidRange = errors.New("booking end must be after start")
	ErrNoBookingID  = errors.New("booking id is required")
)

// Outcome is the result of applying an intent.
// Err is set when a mutation was attempted and failed; Response then holds
// the degraded reply and Mutated is false.
type Outcome struct {
	Response string
	Mutated  bool
	Booking  *models.Booking
	Err      error
}

// Materializer applies create/update/delete intents to the booking store.
type Materializer struct {
	repo   domain.BookingRepository
	loc    *time.Location
	logger *zerolog.Logger
}

func NewMaterializer(repo domain.BookingRepository, loc *time.Location, logger *zerolog.Logger) *Materializer {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Materializer{repo: repo, loc: loc, logger: logger}
}

func (m *Materializer) Materialize(ctx context.Context, in intent.Intent) Outcome {
	switch in.Kind {
	case intent.KindCreate:
		return m.create(ctx, in)
	case intent.KindUpdate:
		return m.update(ctx, in)
	case intent.KindDelete:
		return m.remove(ctx, in)
	default:
		return Outcome{Response: in.Response}
	}
}

func (m *Materializer) create(ctx context.Context, in intent.Intent) Outcome {
	if err := validateDraft(in.Draft); err != nil {
		return m.degrade("create", in, err)
	}

	booking := &models.Booking{
		Title:     in.Draft.Title,
		StartTime: in.Draft.Start,
		EndTime:   in.Draft.End,
		Status:    models.StatusConfirmed,
	}
	if err := m.repo.CreateBooking(ctx, booking); err != nil {
		return m.degrade("create", in, err)
	}
	metrics.IncMutation("create", true)

	response := in.Response
	if response == "" {
		response = fmt.Sprintf(`Successfully scheduled "%s" from %s to %s`,
			booking.Title, m.stamp(booking.StartTime), m.stamp(booking.EndTime))
	}
	return Outcome{Response: response, Mutated: true, Booking: booking}
}

func (m *Materializer) update(ctx context.Context, in intent.Intent) Outcome {
	if err := validateDraft(in.Draft); err != nil {
		return m.degrade("update", in, err)
	}
	if in.Draft.ID == "" {
		return m.degrade("update", in, ErrNoBookingID)
	}

	booking, err := m.repo.GetBooking(ctx, in.Draft.ID)
	if err != nil {
		return m.degrade("update", in, err)
	}
	booking.Title = in.Draft.Title
	booking.StartTime = in.Draft.Start
	booking.EndTime = in.Draft.End
	if err := m.repo.UpdateBooking(ctx, booking); err != nil {
		return m.degrade("update", in, err)
	}
	metrics.IncMutation("update", true)

	response := in.Response
	if response == "" {
		response = fmt.Sprintf(`Successfully updated "%s"`, booking.Title)
	}
	return Outcome{Response: response, Mutated: true, Booking: booking}
}

func (m *Materializer) remove(ctx context.Context, in intent.Intent) Outcome {
	if in.BookingID == "" {
		return m.degrade("delete", in, ErrNoBookingID)
	}
	if err := m.repo.DeleteBooking(ctx, in.BookingID); err != nil {
		return m.degrade("delete", in, err)
	}
	metrics.IncMutation("delete", true)

	response := in.Response
	if response == "" {
		response = "Successfully deleted the booking"
	}
	return Outcome{Response: response, Mutated: true}
}

func (m *Materializer) degrade(action string, in intent.Intent, err error) Outcome {
	metrics.IncMutation(action, false)
	m.logger.Error().Err(err).Str("action", action).Str("intent", string(in.Name)).Msg("booking mutation failed")

	response := in.Response
	if response == "" {
		response = intent.TextMutationFailed
	}
	return Outcome{Response: response, Err: err}
}

// stamp mimics a locale date-time string, e.g. "7/8/2025, 9:00:00 AM".
func (m *Materializer) stamp(t time.Time) string {
	return t.In(m.loc).Format(intent.DateLayout + ", " + intent.TimeLayout)
}

func validateDraft(d *intent.Draft) error {
	if d == nil || strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if !d.End.After(d.Start) {
		return ErrInvalidRange
	}
	return nil
}
