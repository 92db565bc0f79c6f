package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"schedula/internal/domain"
	"schedula/internal/export"
	"schedula/internal/models"

	"github.com/rs/zerolog"
)

var ErrInvalidExportRange = errors.New("invalid export range")

// BookingService serves read-only booking views.
type BookingService struct {
	repo         domain.BookingRepository
	loc          *time.Location
	maxRangeDays int
	logger       *zerolog.Logger
}

func NewBookingService(repo domain.BookingRepository, loc *time.Location, maxRangeDays int, logger *zerolog.Logger) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	if maxRangeDays <= 0 {
		maxRangeDays = 366
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:         repo,
		loc:          loc,
		maxRangeDays: maxRangeDays,
		logger:       logger,
	}
}

func (s *BookingService) Location() *time.Location {
	return s.loc
}

func (s *BookingService) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx)
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// ExportBookings writes an XLSX of bookings starting on the days from..to inclusive.
func (s *BookingService) ExportBookings(ctx context.Context, w io.Writer, from, to time.Time) error {
	from = startOfDay(from.In(s.loc))
	to = startOfDay(to.In(s.loc))

	if to.Before(from) {
		return fmt.Errorf("%w: end before start", ErrInvalidExportRange)
	}
	if to.Sub(from) > time.Duration(s.maxRangeDays)*24*time.Hour {
		return fmt.Errorf("%w: more than %d days", ErrInvalidExportRange, s.maxRangeDays)
	}

	bookings, err := s.repo.GetBookingsByDateRange(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	if err := export.WriteBookings(w, bookings, from, to, s.loc); err != nil {
		return err
	}
	s.logger.Info().Int("bookings", len(bookings)).Time("from", from).Time("to", to).Msg("bookings exported")
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
