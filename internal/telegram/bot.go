package telegram

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (app *BotApp) dispatchUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			app.log.Error("panic in update handler",
				zap.Int("update_id", upd.UpdateID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	if upd.Message == nil {
		return
	}
	app.handleMessage(ctx, upd.Message)
}

func (app *BotApp) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	app.log.Debug("message",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("chat_type", msg.Chat.Type),
		zap.Int("message_id", msg.MessageID),
	)

	switch {
	case msg.IsCommand():
		app.handleCommand(ctx, msg)
	case msg.Voice != nil:
		app.handleVoice(ctx, msg)
	case msg.Audio != nil:
		app.handleAudio(ctx, msg)
	case msg.Document != nil:
		app.handleDocument(ctx, msg)
	case len(msg.Photo) > 0:
		app.handlePhoto(ctx, msg)
	case msg.Video != nil:
		app.handleForwardedCaption(ctx, msg)
	case msg.Text != "":
		app.handleText(ctx, msg)
	}
}

// isReplyToBot: ответ на наше сообщение
func (app *BotApp) isReplyToBot(msg *tgbotapi.Message) bool {
	r := msg.ReplyToMessage
	return r != nil && r.From != nil && r.From.ID == app.self.ID
}

// codeOrSpoiler: такие сообщения не переводим
func codeOrSpoiler(entities []tgbotapi.MessageEntity) bool {
	if len(entities) == 0 {
		return false
	}
	t := entities[0].Type
	return t == "code" || t == "spoiler" || t == "pre"
}

// journal пишет вопрос и ответ в журнал; без базы журнала нет
func (app *BotApp) journal(ctx context.Context, chatID int64, backend, question, answer string) {
	if app.Journal == nil {
		return
	}
	if err := app.Journal.AddExchange(context.WithoutCancel(ctx), chatID, backend, question, answer); err != nil {
		app.log.Warn("journal", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
