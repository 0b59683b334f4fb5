package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers rendered messages through the Telegram Bot API. It
// implements models.Sender.
type Sender struct {
	bot *tgbotapi.BotAPI
}

// NewSender wraps an authorized bot handle.
func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{bot: bot}
}

// Send delivers text to a destination: a numeric chat id or a channel
// handle such as @mychannel.
func (s *Sender) Send(destination string, text string) error {
	var msg tgbotapi.MessageConfig
	if chatID, err := strconv.ParseInt(destination, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(chatID, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(destination, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML

	_, err := s.bot.Send(msg)
	return err
}
