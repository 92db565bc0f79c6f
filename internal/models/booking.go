package models

import "time"

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusPending   BookingStatus = "PENDING"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// Valid reports whether s is one of the four persisted literals.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Category    *string       `json:"category"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	ClientName  *string       `json:"clientName"`
	ClientEmail *string       `json:"clientEmail"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
