package service

import (
	"schedula/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService renders assistant replies as Telegram messages.
type TelegramService struct {
	bot domain.TelegramSender
}

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{
		bot: bot,
	}
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return s.bot.Send(msg)
}

// SendReply sends text with the suggestions laid out as a reply keyboard,
// two buttons per row. No suggestions removes any keyboard left over.
func (s *TelegramService) SendReply(chatID int64, text string, suggestions []string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(suggestions) == 0 {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		return s.bot.Send(msg)
	}
	msg.ReplyMarkup = SuggestionKeyboard(suggestions)
	return s.bot.Send(msg)
}

func SuggestionKeyboard(suggestions []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(suggestions); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(suggestions[i]))
		if i+1 < len(suggestions) {
			row = append(row, tgbotapi.NewKeyboardButton(suggestions[i+1]))
		}
		rows = append(rows, row)
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// SendTyping shows the "typing..." indicator.
func (s *TelegramService) SendTyping(chatID int64) error {
	_, err := s.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}
