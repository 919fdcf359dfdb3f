package notificator

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notificator interface {
	// Notify: сообщение об ошибке админам
	Notify(ctx context.Context, err error, details string) error
	UserNotify(ctx context.Context, chatID int64, text string) error
}

// Sender: то, что умеет отправлять сообщения (*tgbotapi.BotAPI)
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
