// Package telegram is the bot front end: long polling, text rules, commands
// and media handlers on top of the backend services.
package telegram

import (
	"context"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/ai"
	"github.com/Vovarama1992/tg_relay/internal/chats"
	"github.com/Vovarama1992/tg_relay/internal/imagegen"
	"github.com/Vovarama1992/tg_relay/internal/notificator"
	"github.com/Vovarama1992/tg_relay/internal/ocr"
	"github.com/Vovarama1992/tg_relay/internal/ports"
	"github.com/Vovarama1992/tg_relay/internal/speech"
	"github.com/Vovarama1992/tg_relay/internal/summary"
	"github.com/Vovarama1992/tg_relay/internal/translate"
)

// Bot: то, что нужно от Telegram API; *tgbotapi.BotAPI подходит
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Services: всё, чем бот отвечает. Journal, S3 и Notifier могут быть nil.
type Services struct {
	AI        *ai.Service
	Translate *translate.Service
	OCR       *ocr.Service
	Speech    *speech.Service
	Summary   *summary.Service
	Images    *imagegen.Service
	Chats     *chats.Service
	Journal   ports.RecordService
	S3        ports.S3Service
	Notifier  notificator.Notificator
}

type BotApp struct {
	bot  Bot
	self tgbotapi.User
	Services

	http *http.Client
	log  *zap.Logger
	wg   sync.WaitGroup
}

func NewBotApp(bot Bot, self tgbotapi.User, svc Services, log *zap.Logger) *BotApp {
	return &BotApp{
		bot:      bot,
		self:     self,
		Services: svc,
		http:     &http.Client{Timeout: time.Minute},
		log:      log.Named("telegram"),
	}
}

// Run: главный цикл: каждый апдейт в своей горутине, до отмены ctx
func (app *BotApp) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	app.log.Info("bot loop started", zap.String("username", app.self.UserName))

	for {
		select {
		case <-ctx.Done():
			app.wg.Wait()
			return
		case upd, ok := <-updates:
			if !ok {
				app.wg.Wait()
				return
			}
			app.wg.Add(1)
			go func() {
				defer app.wg.Done()
				app.dispatchUpdate(ctx, upd)
			}()
		}
	}
}

// RegisterCommands публикует список команд в меню Telegram
func (app *BotApp) RegisterCommands() error {
	cmds := make([]tgbotapi.BotCommand, 0, len(commandList))
	for _, c := range commandList {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.name, Description: c.description})
	}
	_, err := app.bot.Request(tgbotapi.NewSetMyCommands(cmds...))
	return err
}
