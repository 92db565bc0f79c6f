package models

const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

const (
	// DefaultPage и DefaultPageLimit применяются к GET /api/chat
	DefaultPage      = 1
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// DefaultSelectionTTL время жизни незавершённого выбора бронирования (секунды)
	DefaultSelectionTTL = 10 * 60

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128
)
