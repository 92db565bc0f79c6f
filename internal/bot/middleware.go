package bot

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// withRecovery runs handler and turns a panic into an error log line tagged
// with the update's chat.
func (b *Bot) withRecovery(ctx context.Context, update tgbotapi.Update, handler func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if b.metrics != nil {
			b.metrics.ErrorsTotal.Inc()
		}

		l := zerolog.Ctx(ctx)
		if l.GetLevel() == zerolog.Disabled {
			l = b.logger
		}
		ev := l.Error().Interface("panic", r).Int("update_id", update.UpdateID)
		if chat := update.FromChat(); chat != nil {
			ev = ev.Int64("chat_id", chat.ID)
		}
		ev.Bytes("stack", debug.Stack()).Msg("Recovered from panic in update handler")
	}()
	handler()
}
