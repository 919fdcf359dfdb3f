package telegram

import (
	"context"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/ai"
)

var readCaptions = map[string]bool{
	"прочитай": true,
	"читай":    true,
}

// документ: вопрос к Клоду с файлом или озвучка .txt
func (app *BotApp) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	caption := strings.ToLower(strings.TrimSpace(msg.Caption))

	if isClaudeCaption(caption) {
		app.askWithFile(ctx, msg)
		return
	}

	if msg.Document.MimeType != "text/plain" {
		return
	}
	if msg.Chat.IsPrivate() || readCaptions[caption] {
		app.readAloud(ctx, msg)
	}
}

func isClaudeCaption(caption string) bool {
	f := strings.FieldsFunc(caption, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' })
	return len(f) > 0 && f[0] == "клод"
}

func (app *BotApp) askWithFile(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !app.AI.Has("claude") {
		app.replyText(msg, backendTitles["claude"]+" сейчас недоступен.")
		return
	}

	stop := app.typing(ctx, chatID)
	data, err := app.download(ctx, msg.Document.FileID)
	if err != nil {
		stop()
		app.log.Error("claude file download", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	att := ai.Attachment{Name: msg.Document.FileName, Data: data}
	reply, err := app.AI.AskWithAttachment(ctx, "claude", chatID, msg.Caption, att)
	stop()
	if err != nil {
		app.backendFailed(ctx, chatID, "claude", err)
		return
	}
	if reply == "" {
		return
	}

	app.replyMarkdown(msg, reply)
	app.journal(ctx, chatID, "claude", msg.Caption+" ["+att.Name+"]", reply)
}

// readAloud озвучивает текстовый файл в ускоренном темпе
func (app *BotApp) readAloud(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	data, err := app.download(ctx, msg.Document.FileID)
	if err != nil {
		app.log.Error("tts download", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if !utf8.Valid(data) {
		app.replyText(msg, "Файл должен быть в кодировке UTF-8.")
		return
	}

	app.speak(ctx, msg, string(data), "ru", "+50%")
}
