package telegram

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (app *BotApp) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	if msg.ForwardFromChat != nil {
		app.handleForwardedCaption(ctx, msg)
		return
	}
	if msg.Caption == "" || !app.OCR.IsCommand(ctx, msg.Caption) {
		return
	}

	// последний размер: самый большой
	photo := msg.Photo[len(msg.Photo)-1]
	chatID := msg.Chat.ID

	stop := app.typing(ctx, chatID)
	defer stop()

	data, err := app.download(ctx, photo.FileID)
	if err != nil {
		app.log.Error("ocr download", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	text, err := app.OCR.Recognize(ctx, app.imageURL(ctx, chatID, photo.FileUniqueID, data))
	if err != nil {
		app.log.Error("ocr", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	text = strings.TrimSpace(app.OCR.Clean(ctx, text))
	if text == "" {
		app.log.Info("ocr: nothing recognized", zap.Int64("chat_id", chatID))
		return
	}

	app.replyTextOrFile(msg, text)
	app.journal(ctx, chatID, "ocr", msg.Caption, text)
}

// imageURL: ссылка для vision-модели: из S3, если он есть, иначе data URL.
// Ссылку Telegram отдавать нельзя, в ней токен бота.
func (app *BotApp) imageURL(ctx context.Context, chatID int64, id string, data []byte) string {
	if app.S3 != nil {
		url, err := app.S3.SaveFile(ctx, chatID, bytes.NewReader(data), id+".jpg", "image/jpeg")
		if err == nil {
			return url
		}
		app.log.Warn("ocr: s3 upload failed, using data url", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

// handleForwardedCaption переводит подпись к фото или видео, пересланным из канала
func (app *BotApp) handleForwardedCaption(ctx context.Context, msg *tgbotapi.Message) {
	if msg.ForwardFromChat == nil {
		return
	}
	app.translateAndSend(ctx, msg, msg.Caption, msg.CaptionEntities)
}
