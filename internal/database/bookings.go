package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"schedula/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, title, description, category, start_time, end_time,
            client_name, client_email, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b      models.Booking
		status string
	)
	err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.Category, &b.StartTime, &b.EndTime,
		&b.ClientName, &b.ClientEmail, &status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}

// CreateBooking assigns ID, timestamps and a default status before inserting.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Status == "" {
		booking.Status = models.StatusConfirmed
	}
	if !booking.Status.Valid() {
		return fmt.Errorf("invalid booking status %q", booking.Status)
	}

	now := time.Now().UTC()
	query := `INSERT INTO bookings (` + bookingColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.Title,
		booking.Description,
		booking.Category,
		booking.StartTime.UTC(),
		booking.EndTime.UTC(),
		booking.ClientName,
		booking.ClientEmail,
		string(booking.Status),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// UpdateBooking overwrites the mutable fields of an existing booking.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Status == "" {
		booking.Status = models.StatusConfirmed
	}
	if !booking.Status.Valid() {
		return fmt.Errorf("invalid booking status %q", booking.Status)
	}

	now := time.Now().UTC()
	query := `UPDATE bookings
              SET title = ?, description = ?, category = ?, start_time = ?, end_time = ?,
                  client_name = ?, client_email = ?, status = ?, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		booking.Title,
		booking.Description,
		booking.Category,
		booking.StartTime.UTC(),
		booking.EndTime.UTC(),
		booking.ClientName,
		booking.ClientEmail,
		string(booking.Status),
		now,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if err := expectAffected(result, ErrBookingNotFound); err != nil {
		return err
	}

	booking.UpdatedAt = now
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return expectAffected(result, ErrBookingNotFound)
}

// ListBookings returns every booking ordered by start time ascending.
func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY start_time ASC, created_at ASC`
	return db.queryBookings(ctx, query)
}

// GetBookingsByDateRange returns bookings starting in [start, end).
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE start_time >= ? AND start_time < ?
              ORDER BY start_time ASC, created_at ASC`
	return db.queryBookings(ctx, query, start.UTC(), end.UTC())
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func expectAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
