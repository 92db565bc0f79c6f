// Package bot is the Telegram front-end to the scheduling assistant.
package bot

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"schedula/internal/config"
	"schedula/internal/domain"
	"schedula/internal/intent"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const textSlowDown = "⚠️ You're sending messages too quickly. Please wait a moment."

type Bot struct {
	tgService domain.TelegramService
	chat      domain.ChatResponder
	limiter   domain.SelectionStore
	config    config.BotConfig
	metrics   *Metrics
	logger    *zerolog.Logger
}

// NewBot wires the front-end. limiter and metrics may be nil.
func NewBot(
	tgService domain.TelegramService,
	chat domain.ChatResponder,
	limiter domain.SelectionStore,
	cfg config.BotConfig,
	metrics *Metrics,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService: tgService,
		chat:      chat,
		limiter:   limiter,
		config:    cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// ClientKey scopes pending selections and rate limits to one chat.
func ClientKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(updateCtx, update, func() {
		msg := update.Message
		if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
			return
		}

		if !b.allow(updateCtx, msg.Chat.ID) {
			b.send(msg.Chat.ID, textSlowDown, nil)
			return
		}

		b.handleMessage(updateCtx, msg)
	})
}

func (b *Bot) allow(ctx context.Context, chatID int64) bool {
	if b.limiter == nil || b.config.RateLimitMessages <= 0 {
		return true
	}

	window := time.Duration(b.config.RateLimitWindow) * time.Second
	allowed, err := b.limiter.CheckRateLimit(ctx, ClientKey(chatID), b.config.RateLimitMessages, window)
	if err != nil {
		// без лимитера не блокируем пользователя
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Rate limit check failed")
		return true
	}
	if !allowed {
		b.logger.Warn().Int64("chat_id", chatID).Msg("Rate limit exceeded")
		if b.metrics != nil {
			b.metrics.RateLimited.Inc()
		}
	}
	return allowed
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	logger := zerolog.Ctx(ctx)

	if msg.IsCommand() {
		if b.metrics != nil {
			b.metrics.CommandsProcessed.WithLabelValues(msg.Command()).Inc()
		}
		switch msg.Command() {
		case "start", "help":
			b.send(chatID, intent.TextHelp, intent.Suggestions())
		default:
			b.send(chatID, "Unknown command. Try /help.", intent.Suggestions())
		}
		return
	}

	if b.metrics != nil {
		b.metrics.MessagesProcessed.Inc()
	}

	if err := b.tgService.SendTyping(chatID); err != nil {
		logger.Debug().Err(err).Msg("typing indicator failed")
	}

	reply, err := b.chat.Reply(ctx, ClientKey(chatID), msg.Text)
	if err != nil {
		if b.metrics != nil {
			b.metrics.ErrorsTotal.Inc()
		}
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("chat reply failed")
		b.send(chatID, intent.TextApology, intent.FallbackSuggestions())
		return
	}

	if reply.BookingCreated && b.metrics != nil {
		b.metrics.BookingsChanged.Inc()
	}
	b.send(chatID, reply.Response, reply.Suggestions)
}

func (b *Bot) send(chatID int64, text string, suggestions []string) {
	if _, err := b.tgService.SendReply(chatID, text, suggestions); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
