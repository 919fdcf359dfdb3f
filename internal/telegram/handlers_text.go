package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/chats"
)

var backendTitles = map[string]string{
	"gpt":    "GPT",
	"bing":   "Бинг",
	"bard":   "Бард",
	"claude": "Клод",
}

func (app *BotApp) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	name, err := app.Chats.Name(ctx, chatID)
	if err != nil {
		app.log.Warn("bot name", zap.Int64("chat_id", chatID), zap.Error(err))
		name = chats.DefaultName
	}

	switch act := route(msg.Text, name, msg.Chat.IsPrivate(), app.isReplyToBot(msg)); act {
	case actBlock:
		app.setBlocked(ctx, msg, true, "Автоперевод выключен")

	case actUnblock:
		app.setBlocked(ctx, msg, false, "Автоперевод включен")

	case actForget:
		app.forget(ctx, msg)

	case actTranslate:
		if app.Chats.Blocked(chatID) {
			return
		}
		app.translateAndSend(ctx, msg, msg.Text, msg.Entities)

	default:
		app.ask(ctx, msg, actionBackends[act], msg.Text)
	}
}

func (app *BotApp) setBlocked(ctx context.Context, msg *tgbotapi.Message, blocked bool, answer string) {
	if err := app.Chats.SetBlocked(ctx, msg.Chat.ID, blocked); err != nil {
		app.log.Error("set blocked", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
	app.log.Info("auto-translate switched", zap.Int64("chat_id", msg.Chat.ID), zap.Bool("blocked", blocked))
	app.send(tgbotapi.NewMessage(msg.Chat.ID, answer))
}

// forget стирает историю и сессии чата во всех бэкендах
func (app *BotApp) forget(ctx context.Context, msg *tgbotapi.Message) {
	if err := app.AI.ForgetAll(ctx, msg.Chat.ID); err != nil {
		app.log.Error("forget", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
	app.send(tgbotapi.NewMessage(msg.Chat.ID, "Ок"))
}

// ask отправляет вопрос бэкенду; пустой ответ: молчим, админы уже знают
func (app *BotApp) ask(ctx context.Context, msg *tgbotapi.Message, backend, query string) {
	if !app.AI.Has(backend) {
		app.replyText(msg, backendTitles[backend]+" сейчас недоступен.")
		return
	}

	stop := app.typing(ctx, msg.Chat.ID)
	reply, err := app.AI.Ask(ctx, backend, msg.Chat.ID, query)
	stop()

	if err != nil {
		app.backendFailed(ctx, msg.Chat.ID, backend, err)
		return
	}
	if reply == "" {
		return
	}
	app.replyMarkdown(msg, reply)
	app.journal(ctx, msg.Chat.ID, backend, query, reply)
}

// backendFailed сообщает в чат, что бэкенд не ответил и со второй попытки
func (app *BotApp) backendFailed(ctx context.Context, chatID int64, backend string, err error) {
	if app.Notifier == nil || errors.Is(err, context.Canceled) {
		return
	}
	text := backendTitles[backend] + " сейчас не отвечает, попробуйте позже."
	if nerr := app.Notifier.UserNotify(context.WithoutCancel(ctx), chatID, text); nerr != nil {
		app.log.Warn("user notify", zap.Int64("chat_id", chatID), zap.Error(nerr))
	}
}

// translateAndSend переводит иностранный текст на русский
func (app *BotApp) translateAndSend(ctx context.Context, msg *tgbotapi.Message, text string, entities []tgbotapi.MessageEntity) {
	if text == "" || codeOrSpoiler(entities) {
		return
	}
	out := app.Translate.Auto(ctx, text)
	if out == "" {
		return
	}
	app.send(tgbotapi.NewMessage(msg.Chat.ID, out))
	app.journal(ctx, msg.Chat.ID, "translate", text, out)
}

func (app *BotApp) send(c tgbotapi.Chattable) {
	if _, err := app.bot.Send(c); err != nil {
		app.log.Error("send", zap.Error(err))
	}
}
