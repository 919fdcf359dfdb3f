// Package translate detects foreign text and translates it through the chat model.
package translate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"
)

// на коротких текстах детектор сильно врёт
const minDetectWords = 5

const translatePrompt = "Исправь явные опечатки в тексте и разорванные строки, которые там могли появиться после плохого OCR, " +
	"переведи текст с языка (%s) на язык (%s), разбей переведенный текст на абзацы для удобного чтения, " +
	"по возможности сохранив оригинальное разбиение на строки и абзацы. " +
	"Ссылки и другие непереводимые элементы из текста надо сохранить в переводе. " +
	"Текст это всё (до конца), что идет после двоеточия. " +
	"Покажи только перевод без оформления и отладочной информации. Текст:"

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	gpt Completer
	log *zap.Logger
}

func NewService(gpt Completer, log *zap.Logger) *Service {
	return &Service{gpt: gpt, log: log.Named("translate")}
}

// Detect возвращает ISO 639-1 код языка текста или "", если переводить не надо:
// текст русский, слишком короткий или язык не определился уверенно.
func Detect(text string) string {
	words := 0
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) >= 2 {
			words++
		}
	}
	if words < minDetectWords {
		return ""
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() || info.Lang == whatlanggo.Rus {
		return ""
	}

	code := info.Lang.Iso6391()
	if code == "" {
		code = info.Lang.Iso6393()
	}
	return code
}

// Translate переводит text на язык to; "" если не вышло
func (s *Service) Translate(ctx context.Context, text, to string) string {
	return s.translate(ctx, text, "autodetect", to)
}

func (s *Service) translate(ctx context.Context, text, from, to string) string {
	if s.gpt == nil || strings.TrimSpace(text) == "" {
		return ""
	}

	prompt := fmt.Sprintf(translatePrompt, from, to) + text
	out, err := s.gpt.Complete(ctx, prompt)
	if err != nil {
		s.log.Warn("translate", zap.String("to", to), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}

// Auto переводит на русский всё, что не русское; "" если переводить не надо
func (s *Service) Auto(ctx context.Context, text string) string {
	lang := Detect(text)
	if lang == "" {
		return ""
	}
	out := s.translate(ctx, text, lang, "ru")
	if out == strings.TrimSpace(text) {
		return ""
	}
	return out
}

// ParseCommand разбирает аргументы /trans. Незнакомое первое слово значит,
// что язык не указан: переводим на русский, а слово остаётся в тексте.
func ParseCommand(args string) (lang, text string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", "", false
	}
	lang, text = parts[0], parts[1]
	if !IsSupported(lang) {
		return "ru", lang + " " + text, true
	}
	return lang, text, true
}
