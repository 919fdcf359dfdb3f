package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/chats"
	"github.com/Vovarama1992/tg_relay/internal/speech"
	"github.com/Vovarama1992/tg_relay/internal/summary"
	"github.com/Vovarama1992/tg_relay/internal/translate"
)

type command struct {
	name        string
	description string
}

var commandList = []command{
	{"help", "Что умеет бот"},
	{"name", "Поменять имя бота в этом чате"},
	{"trans", "Перевести текст: /trans en привет"},
	{"tts", "Озвучить текст"},
	{"tts2", "Озвучить на языке: /tts2 en hello"},
	{"tts3", "Озвучить с скоростью: /tts3 ru +50% текст"},
	{"sum", "Краткий пересказ страницы по ссылке"},
	{"image", "Нарисовать картинку"},
	{"reset", "Забыть диалог"},
}

const helpText = `Этот бот может

Распознать текст с картинки, надо отправить картинку с подписью прочитай|распознай|ocr|итп

Озвучить текст, надо прислать текстовый файл .txt с кодировкой UTF8 в приват или с подписью прочитай

Сообщения на иностранном языке автоматически переводятся на русский, это можно включить|выключить командой замолчи|вернись

Голосовые сообщения автоматически переводятся в текст

GPT chat активируется словом бот - бот, привет. Что бы очистить историю напишите забудь.
Бинг, Бард и Клод отзываются на своё имя: бинг, привет

`

func helpMessage() string {
	var b strings.Builder
	b.WriteString(helpText)
	for _, c := range commandList {
		fmt.Fprintf(&b, "/%s - %s\n", c.name, c.description)
	}
	return b.String()
}

func (app *BotApp) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !app.commandForMe(msg) {
		return
	}
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		app.send(tgbotapi.NewMessage(msg.Chat.ID, helpMessage()))
	case "name":
		app.cmdName(ctx, msg, args)
	case "trans":
		app.cmdTrans(ctx, msg, args)
	case "tts":
		app.cmdTTS(ctx, msg, args)
	case "tts2":
		app.cmdTTS2(ctx, msg, args)
	case "tts3":
		app.cmdTTS3(ctx, msg, args)
	case "sum":
		app.cmdSum(ctx, msg, args)
	case "image":
		app.cmdImage(ctx, msg, args)
	case "reset":
		app.forget(ctx, msg)
	}
}

// commandForMe: в группе /cmd@other_bot адресована другому боту
func (app *BotApp) commandForMe(msg *tgbotapi.Message) bool {
	_, to, ok := strings.Cut(msg.CommandWithAt(), "@")
	return !ok || strings.EqualFold(to, app.self.UserName)
}

func (app *BotApp) cmdName(ctx context.Context, msg *tgbotapi.Message, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		app.replyText(msg, "Использование: /name <новое имя>")
		return
	}

	err := app.Chats.SetName(ctx, msg.Chat.ID, fields[0])
	switch {
	case errors.Is(err, chats.ErrBadName):
		app.replyText(msg, "Неправильное имя, можно только русские и английские буквы и цифры после букв, не больше 10 всего.")
	case err != nil:
		app.log.Error("set name", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		app.replyText(msg, "Не удалось сохранить имя.")
	default:
		app.send(tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("Кодовое слово для обращения к боту изменено на (%s) для этого чата.", fields[0])))
	}
}

func (app *BotApp) cmdTrans(ctx context.Context, msg *tgbotapi.Message, args string) {
	lang, text, ok := translate.ParseCommand(args)
	if !ok {
		app.replyText(msg, translate.Usage)
		return
	}

	stop := app.typing(ctx, msg.Chat.ID)
	out := app.Translate.Translate(ctx, text, lang)
	stop()

	if out == "" {
		app.replyText(msg, "Ошибка перевода")
		return
	}
	app.replyText(msg, out)
	app.journal(ctx, msg.Chat.ID, "translate", text, out)
}

func (app *BotApp) cmdTTS(ctx context.Context, msg *tgbotapi.Message, args string) {
	if args == "" {
		app.replyText(msg, "Использование: /tts <текст>")
		return
	}
	app.speak(ctx, msg, args, "ru", "")
}

func (app *BotApp) cmdTTS2(ctx context.Context, msg *tgbotapi.Message, args string) {
	f := strings.Fields(args)
	if len(f) < 2 {
		app.replyText(msg, "Использование: /tts2 ru|en|uk|... <текст>")
		return
	}
	app.speak(ctx, msg, strings.Join(f[1:], " "), f[0], "")
}

func (app *BotApp) cmdTTS3(ctx context.Context, msg *tgbotapi.Message, args string) {
	f := strings.Fields(args)
	if len(f) < 3 {
		app.replyText(msg, "Использование: /tts3 ru|en|uk|... +-xx% <текст>")
		return
	}
	app.speak(ctx, msg, strings.Join(f[2:], " "), f[0], f[1])
}

func (app *BotApp) speak(ctx context.Context, msg *tgbotapi.Message, text, lang, rate string) {
	stop := app.typing(ctx, msg.Chat.ID)
	audio, err := app.Speech.Synthesize(ctx, text, lang, rate)
	stop()

	switch {
	case errors.Is(err, speech.ErrBadRate):
		app.replyText(msg, "Скорость надо указывать так: +50% или -20%")
		return
	case err != nil:
		app.log.Error("tts", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		app.replyText(msg, "Не удалось озвучить текст.")
		return
	}
	app.sendAudio(msg, audio)
}

// sendAudio: ogg уходит голосовым, остальное аудиофайлом
func (app *BotApp) sendAudio(msg *tgbotapi.Message, a speech.Audio) {
	var c tgbotapi.Chattable
	if a.Format == "ogg" {
		v := tgbotapi.NewVoice(msg.Chat.ID, tgbotapi.FileBytes{Name: "voice.ogg", Bytes: a.Data})
		if !msg.Chat.IsPrivate() {
			v.ReplyToMessageID = msg.MessageID
		}
		c = v
	} else {
		au := tgbotapi.NewAudio(msg.Chat.ID, tgbotapi.FileBytes{Name: "speech." + a.Format, Bytes: a.Data})
		if !msg.Chat.IsPrivate() {
			au.ReplyToMessageID = msg.MessageID
		}
		c = au
	}
	app.send(c)
}

func (app *BotApp) cmdSum(ctx context.Context, msg *tgbotapi.Message, args string) {
	if args == "" {
		app.replyText(msg, "Использование: /sum <ссылка>")
		return
	}
	link := strings.Fields(args)[0]

	stop := app.typing(ctx, msg.Chat.ID)
	out, err := app.Summary.SummarizeURL(ctx, link)
	stop()

	switch {
	case errors.Is(err, summary.ErrBadURL):
		app.replyText(msg, "Это не похоже на ссылку.")
	case errors.Is(err, summary.ErrUnsupported):
		app.replyText(msg, "Ссылки на YouTube пока не поддерживаются.")
	case errors.Is(err, summary.ErrEmptyPage):
		app.replyText(msg, "На странице не нашлось текста.")
	case err != nil:
		app.log.Warn("summary", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		app.replyText(msg, "Не удалось скачать страницу.")
	case out == "":
		app.replyText(msg, "Не получилось сделать пересказ.")
	default:
		app.replyMarkdown(msg, out)
		app.journal(ctx, msg.Chat.ID, "summary", link, out)
	}
}

// подпись к медиа в Telegram не длиннее 1024 символов
const maxCaption = 1024

func (app *BotApp) cmdImage(ctx context.Context, msg *tgbotapi.Message, prompt string) {
	if prompt == "" {
		app.replyText(msg, "Использование: /image <что нарисовать>")
		return
	}
	if !app.Images.Enabled() {
		app.replyText(msg, "Рисование не настроено.")
		return
	}

	stop := app.typing(ctx, msg.Chat.ID)
	urls := app.Images.Generate(ctx, msg.Chat.ID, prompt)
	stop()

	if len(urls) == 0 {
		app.replyText(msg, "Не получилось ничего нарисовать.")
		return
	}

	caption := prompt
	if utf8.RuneCountInString(caption) > maxCaption {
		caption = string([]rune(caption)[:maxCaption])
	}

	if len(urls) == 1 {
		p := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(urls[0]))
		p.Caption = caption
		app.send(p)
	} else {
		media := make([]any, 0, len(urls))
		for i, u := range urls {
			m := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(u))
			if i == 0 {
				m.Caption = caption
			}
			media = append(media, m)
		}
		if _, err := app.bot.SendMediaGroup(tgbotapi.NewMediaGroup(msg.Chat.ID, media)); err != nil {
			app.log.Error("send media group", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
			return
		}
	}
	app.journal(ctx, msg.Chat.ID, "image", prompt, strings.Join(urls, "\n"))
}
