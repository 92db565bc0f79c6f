package models

import "time"

// SelectionCandidate is one numbered entry of a cancel listing.
type SelectionCandidate struct {
	BookingID string `json:"booking_id"`
	Title     string `json:"title"`
}

// Selection remembers the bookings offered to a client for cancellation
// so that a follow-up reply ("2", a title) can be resolved.
type Selection struct {
	ClientKey  string               `json:"client_key"`
	Candidates []SelectionCandidate `json:"candidates"`
	CreatedAt  time.Time            `json:"created_at"`
}
