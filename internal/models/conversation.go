package models

import "time"

// ChatConversation is one stored (message, response) exchange.
type ChatConversation struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination fills Pages as ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

type ConversationPage struct {
	Conversations []*ChatConversation `json:"conversations"`
	Pagination    Pagination          `json:"pagination"`
}

// ChatReply is what the assistant returns for one inbound message.
type ChatReply struct {
	Response       string   `json:"response"`
	BookingCreated bool     `json:"bookingCreated"`
	Booking        *Booking `json:"booking,omitempty"`
	Suggestions    []string `json:"suggestions"`
}
