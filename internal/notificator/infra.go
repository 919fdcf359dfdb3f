package notificator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var ErrNoBot = errors.New("notificator: bot not set")

// лимит Telegram на одно сообщение
const maxNotifyLen = 4000

type Infra struct {
	mu     sync.RWMutex
	bot    Sender
	admins []int64
	log    *zap.Logger
}

func NewInfra(admins []int64, log *zap.Logger) *Infra {
	return &Infra{admins: admins, log: log.Named("notificator")}
}

// SetBot: позволяет передать бота ПОСЛЕ того, как он инициализировался
func (i *Infra) SetBot(bot Sender) {
	i.mu.Lock()
	i.bot = bot
	i.mu.Unlock()
}

func (i *Infra) sender() Sender {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.bot
}

func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	i.log.Error("notify", zap.String("details", details), zap.Error(err))

	bot := i.sender()
	if bot == nil {
		return ErrNoBot
	}

	text := fmt.Sprintf("❗ Ошибка в боте\n\nОшибка: %v\n\nДетали: %s", err, details)
	if r := []rune(text); len(r) > maxNotifyLen {
		text = string(r[:maxNotifyLen])
	}

	var errs []error
	for _, chatID := range i.admins {
		if _, sendErr := bot.Send(tgbotapi.NewMessage(chatID, text)); sendErr != nil {
			i.log.Warn("send fail", zap.Int64("chat_id", chatID), zap.Error(sendErr))
			errs = append(errs, sendErr)
		}
	}
	return errors.Join(errs...)
}

func (i *Infra) UserNotify(ctx context.Context, chatID int64, text string) error {
	bot := i.sender()
	if bot == nil {
		return ErrNoBot
	}
	_, err := bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
