// Package summary retells web pages and texts through the chat backends.
package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	ErrBadURL      = errors.New("summary: not a web link")
	ErrUnsupported = errors.New("summary: youtube links are not supported")
	ErrEmptyPage   = errors.New("summary: no text on the page")
)

// не байт больше: длиннее бэкенды не принимают
const maxTextBytes = 60000

type Subject string

const (
	SubjectText    Subject = "text"
	SubjectPDF     Subject = "pdf"
	SubjectChatLog Subject = "chat_log"
	SubjectYouTube Subject = "youtube_video"
)

var sources = map[Subject]string{
	SubjectText:    "the following",
	SubjectPDF:     "the following",
	SubjectChatLog: "the following telegram chat log",
	SubjectYouTube: "the following video subtitles extracted from youtube",
}

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OneShot: вопрос без истории (Bing)
type OneShot interface {
	Once(ctx context.Context, prompt string) (string, error)
}

// PDFText достаёт текст из pdf
type PDFText interface {
	Text(ctx context.Context, data []byte) (string, error)
}

type Service struct {
	gpt  Completer
	bing OneShot
	pdf  PDFText
	http *http.Client
	log  *zap.Logger
}

// NewService: любой из бэкендов и pdf может быть nil
func NewService(gpt Completer, bing OneShot, pdf PDFText, log *zap.Logger) *Service {
	return &Service{
		gpt:  gpt,
		bing: bing,
		pdf:  pdf,
		http: &http.Client{Timeout: fetchTimeout},
		log:  log.Named("summary"),
	}
}

// SummarizeURL скачивает страницу и пересказывает её
func (s *Service) SummarizeURL(ctx context.Context, raw string) (string, error) {
	if !ValidURL(raw) {
		return "", ErrBadURL
	}
	if isYouTube(raw) {
		return "", ErrUnsupported
	}

	p, err := s.fetch(ctx, raw)
	if err != nil {
		return "", err
	}

	subj := SubjectText
	var text string
	if isPDF(p) && s.pdf != nil {
		subj = SubjectPDF
		text, err = s.pdf.Text(ctx, p.body)
	} else {
		text, err = ExtractText(p.body, p.contentType)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPage
	}

	return s.Summarize(ctx, text, subj), nil
}

// Summarize: сначала GPT, при ошибке или пустом ответе Bing; "" если никто не смог
func (s *Service) Summarize(ctx context.Context, text string, subj Subject) string {
	text = CutBytes(text, maxTextBytes)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	prompt := buildPrompt(text, subj)

	if s.gpt != nil {
		out, err := s.gpt.Complete(ctx, prompt)
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
		s.log.Warn("gpt summary failed, trying bing", zap.Error(err))
	}

	if s.bing != nil {
		out, err := s.bing.Once(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(out)
		}
		s.log.Warn("bing summary failed", zap.Error(err))
	}
	return ""
}

func buildPrompt(text string, subj Subject) string {
	src, ok := sources[subj]
	if !ok {
		src = sources[SubjectText]
	}
	return fmt.Sprintf("Summarize %s, briefly answer in Russian with easy-to-read formatting:\n"+
		"-------------\n%s\n-------------\nBEGIN:\n", src, text)
}

// CutBytes укорачивает текст до n байт, не разрывая символы
func CutBytes(text string, n int) string {
	if len(text) <= n {
		return text
	}
	text = text[:n]
	for len(text) > 0 && !utf8.ValidString(text) {
		text = text[:len(text)-1]
	}
	return text
}

func isPDF(p page) bool {
	return strings.HasPrefix(p.contentType, "application/pdf") || strings.HasPrefix(string(p.body[:min(len(p.body), 5)]), "%PDF-")
}
