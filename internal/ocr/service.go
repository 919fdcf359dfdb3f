// Package ocr decides whether a photo caption asks for text recognition and
// reads the text with a vision-capable chat model.
package ocr

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// подписи, по которым понятно, что с картинки нужен текст
var keywords = []string{
	"прочитай", "читай", "распознай", "отсканируй", "текст с картинки", "текст с изображения",
	"текст с фотографии", "текст с скриншота", "розпізнай", "скануй", "extract", "identify", "detect",
	"ocr", "text from image", "text from picture", "text from photo", "text from screenshot",
	"переведи текст с картинки", "напиши текст с изображения", "вытащи текст с фотографии",
	"получи текст с скриншота", "ocr с изображения", "прочитати", "текст з зображення",
	"текст з фотографії", "текст зі скріншоту", "текст з картинки", "read", "recognize", "scan",
	"translate text from image", "write text from picture", "get text from photo",
	"extract text from screenshot", "ocr from image",
}

const fuzzyThreshold = 70

const (
	askPrompt = "Пользователь прислал в телеграм чат картинку с подписью (%s). " +
		"В чате есть бот, который распознает текст с картинок по просьбе пользователей. " +
		"Тебе надо определить по подписи, хочет ли пользователь, чтобы с этой картинки был распознан текст " +
		"с помощью OCR, или подпись на это совсем не указывает. " +
		"Ответь одним словом без оформления - да или нет или непонятно."

	recognizePrompt = "Распознай весь текст на картинке. Сохрани разбиение на строки и абзацы. " +
		"Покажи только текст без оформления и своих комментариев."

	cleanPrompt = "Исправь явные ошибки и опечатки в тексте, которые там могли появиться после плохого OCR. " +
		"То, что совсем плохо распозналось, бессмысленные символы, надо убрать. " +
		"Важна точность, лучше оставить ошибку неисправленной, если нет уверенности в том, " +
		"что это ошибка и её надо исправить именно так. " +
		"Важно сохранить оригинальное разбиение на строки и абзацы. " +
		"Покажи результат без оформления и отладочной информации. Текст:"
)

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type VisionCompleter interface {
	CompleteMessages(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

type Service struct {
	gpt    Completer
	vision VisionCompleter
	log    *zap.Logger
}

func NewService(gpt Completer, vision VisionCompleter, log *zap.Logger) *Service {
	return &Service{gpt: gpt, vision: vision, log: log.Named("ocr")}
}

// IsCommand: сначала нечёткое совпадение с ключевыми словами, потом вопрос модели
func (s *Service) IsCommand(ctx context.Context, caption string) bool {
	caption = strings.ToLower(strings.TrimSpace(caption))
	if caption == "" {
		return false
	}
	for _, k := range keywords {
		if ratio(caption, k) > fuzzyThreshold {
			return true
		}
	}

	if s.gpt == nil {
		return false
	}
	answer, err := s.gpt.Complete(ctx, fmt.Sprintf(askPrompt, caption))
	if err != nil {
		s.log.Warn("ask ocr command", zap.Error(err))
		return false
	}
	return strings.Trim(strings.ToLower(answer), " .\n") == "да"
}

// Recognize читает текст с картинки по URL (http или data:)
func (s *Service) Recognize(ctx context.Context, imageURL string) (string, error) {
	if s.vision == nil {
		return "", ErrNoVision
	}
	text, err := s.vision.CompleteMessages(ctx, []openai.ChatCompletionMessage{{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: recognizePrompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    imageURL,
				Detail: openai.ImageURLDetailHigh,
			}},
		},
	}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Clean убирает мусор распознавания; при ошибке возвращает текст как есть
func (s *Service) Clean(ctx context.Context, text string) string {
	if s.gpt == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := s.gpt.Complete(ctx, cleanPrompt+text)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			s.log.Warn("clean", zap.Error(err))
		}
		return text
	}
	return strings.TrimSpace(out)
}

// ratio: похожесть строк в процентах
func ratio(a, b string) int {
	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (n - d) / n
}
