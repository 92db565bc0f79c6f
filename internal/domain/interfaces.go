package domain

import (
	"context"
	"time"

	"schedula/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv *models.ChatConversation) error
	ListConversations(ctx context.Context, skip, take int) ([]*models.ChatConversation, error)
	CountConversations(ctx context.Context) (int64, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Repository is everything the chat service reads and writes.
type Repository interface {
	BookingRepository
	ConversationRepository
}

type SyncQueueRepository interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// SelectionStore keeps per-client conversational state between requests.
type SelectionStore interface {
	GetSelection(ctx context.Context, clientKey string) (*models.Selection, error)
	SetSelection(ctx context.Context, sel *models.Selection) error
	ClearSelection(ctx context.Context, clientKey string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ChatResponder answers one inbound message for a client.
type ChatResponder interface {
	Reply(ctx context.Context, clientKey, message string) (*models.ChatReply, error)
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// TelegramService is what the bot needs on top of the raw sender.
type TelegramService interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendReply(chatID int64, text string, suggestions []string) (tgbotapi.Message, error)
	SendTyping(chatID int64) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, bookingID string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID string, booking *models.Booking) error
}
