package telegram

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	telegramMaxLen = 4096
	maxDownload    = 20 << 20 // больше Bot API всё равно не отдаёт
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// newReply: сообщение в чат; в группе ответом на исходное
func newReply(msg *tgbotapi.Message, text string) tgbotapi.MessageConfig {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	if !msg.Chat.IsPrivate() {
		m.ReplyToMessageID = msg.MessageID
	}
	m.DisableWebPagePreview = true
	return m
}

// replyMarkdown отправляет ответ бэкенда; часть, которую Telegram не
// принял как HTML, уходит простым текстом
func (app *BotApp) replyMarkdown(msg *tgbotapi.Message, text string) {
	for _, part := range splitMessage(toTelegramHTML(text), maxMessageLen) {
		m := newReply(msg, part)
		m.ParseMode = tgbotapi.ModeHTML
		_, err := app.bot.Send(m)
		if err == nil {
			continue
		}
		app.log.Warn("send html failed, sending plain", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))

		plain := html.UnescapeString(tagRe.ReplaceAllString(part, ""))
		if _, err := app.bot.Send(newReply(msg, plain)); err != nil {
			app.log.Error("send reply", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
			return
		}
	}
}

// replyText: простой текст, по частям
func (app *BotApp) replyText(msg *tgbotapi.Message, text string) {
	for _, part := range splitRunes(text, telegramMaxLen) {
		if _, err := app.bot.Send(newReply(msg, part)); err != nil {
			app.log.Error("send text", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
			return
		}
	}
}

// replyTextOrFile: длинный результат отправляем файлом text.txt
func (app *BotApp) replyTextOrFile(msg *tgbotapi.Message, text string) {
	if utf8.RuneCountInString(text) <= telegramMaxLen {
		app.replyText(msg, text)
		return
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: "text.txt", Bytes: []byte(text)})
	if !msg.Chat.IsPrivate() {
		doc.ReplyToMessageID = msg.MessageID
	}
	if _, err := app.bot.Send(doc); err != nil {
		app.log.Error("send text.txt", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

func splitRunes(s string, n int) []string {
	var out []string
	r := []rune(s)
	for len(r) > n {
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

// typing показывает "печатает…", пока не вызовут stop
func (app *BotApp) typing(ctx context.Context, chatID int64) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(4 * time.Second)
		defer t.Stop()
		for {
			if _, err := app.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
				app.log.Debug("chat action", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// download скачивает файл Telegram; ссылка содержит токен и наружу не уходит
func (app *BotApp) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := app.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := app.http.Do(req)
	if err != nil {
		// *url.Error печатает адрес вместе с токеном
		return nil, fmt.Errorf("download file %s: request failed", fileID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileID, err)
	}
	app.log.Debug("downloaded", zap.String("file_id", fileID), zap.String("size", humanize.Bytes(uint64(len(data)))))
	return data, nil
}
