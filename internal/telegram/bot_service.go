// Package telegram notifies officers about their grievances through a Telegram
// bot and answers the commands officers use to link their chat.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"grievance/backend/internal/localization"
	"grievance/backend/internal/logger"
)

// BotService long-polls Telegram for updates and replies to commands.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	messenger Messenger
	localizer *localization.Localizer
	lang      string
	logger    *zap.Logger
}

// NewBotService authorizes the bot with token.
func NewBotService(token string, loc *localization.Localizer, lang string, l *zap.Logger) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = false
	l = logger.OrNop(l)
	l.Info("Authorized on Telegram", zap.String("account", bot.Self.UserName))

	return newBotService(bot, NewMessenger(bot), loc, lang, l), nil
}

func newBotService(bot *tgbotapi.BotAPI, m Messenger, loc *localization.Localizer, lang string, l *zap.Logger) *BotService {
	if lang == "" {
		lang = localization.DefaultLanguage
	}
	return &BotService{BotAPI: bot, messenger: m, localizer: loc, lang: lang, logger: logger.OrNop(l)}
}

// Messenger returns the sender used for both replies and notifications.
func (s *BotService) Messenger() Messenger {
	return s.messenger
}

// Run handles updates until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				s.handleMessage(update.Message)
			}
		}
	}
}

func (s *BotService) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID
	if err := s.messenger.SendText(chatID, s.reply(msg.Command(), chatID)); err != nil {
		s.logger.Warn("Telegram reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *BotService) reply(command string, chatID int64) string {
	switch command {
	case "start":
		return s.localizer.Format(s.lang, "welcome", chatID)
	case "myid":
		return s.localizer.Format(s.lang, "your_chat_id", chatID)
	default:
		return s.localizer.GetString(s.lang, "unknown_command")
	}
}
