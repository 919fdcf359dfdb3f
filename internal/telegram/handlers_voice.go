package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// подписи, по которым распознаём аудиофайл в группе
var transcribeCaptions = map[string]bool{
	"распознай": true,
	"расшифруй": true,
}

func (app *BotApp) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	app.transcribe(ctx, msg, msg.Voice.FileID, "voice.ogg")
}

func (app *BotApp) handleAudio(ctx context.Context, msg *tgbotapi.Message) {
	caption := strings.ToLower(strings.TrimSpace(msg.Caption))
	if !msg.Chat.IsPrivate() && !transcribeCaptions[caption] {
		return
	}
	name := msg.Audio.FileName
	if name == "" {
		name = "audio.mp3"
	}
	app.transcribe(ctx, msg, msg.Audio.FileID, name)
}

func (app *BotApp) transcribe(ctx context.Context, msg *tgbotapi.Message, fileID, filename string) {
	chatID := msg.Chat.ID

	stop := app.typing(ctx, chatID)
	defer stop()

	data, err := app.download(ctx, fileID)
	if err != nil {
		app.log.Error("stt download", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	text, err := app.Speech.Transcribe(ctx, data, filename)
	if err != nil {
		app.log.Warn("stt", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if strings.TrimSpace(text) == "" {
		app.log.Info("stt: no speech", zap.Int64("chat_id", chatID))
		return
	}

	app.replyTextOrFile(msg, text)
	app.journal(ctx, chatID, "stt", filename, text)
}
