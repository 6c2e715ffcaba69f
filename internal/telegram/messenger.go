package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger delivers a plain text message to a Telegram chat.
type Messenger interface {
	SendText(chatID int64, text string) error
}

type botMessenger struct {
	api *tgbotapi.BotAPI
}

// NewMessenger wraps an authorized bot.
func NewMessenger(api *tgbotapi.BotAPI) Messenger {
	return botMessenger{api: api}
}

func (m botMessenger) SendText(chatID int64, text string) error {
	_, err := m.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
