package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/notificator"
)

var (
	ErrUnknownBackend = errors.New("ai: unknown backend")
	ErrNoAttachments  = errors.New("ai: backend does not accept attachments")
)

const askTimeout = 120 * time.Second

type attachmentAsker interface {
	AskWithAttachment(ctx context.Context, chatID int64, query string, att Attachment) (string, error)
}

// Service направляет вопросы в нужный бэкенд и сообщает админам о сбоях
type Service struct {
	backends map[string]Backend
	order    []string
	notifier notificator.Notificator
	log      *zap.Logger
}

func NewService(notifier notificator.Notificator, log *zap.Logger, backends ...Backend) *Service {
	s := &Service{
		backends: make(map[string]Backend, len(backends)),
		notifier: notifier,
		log:      log.Named("ai"),
	}
	for _, b := range backends {
		s.backends[b.Name()] = b
		s.order = append(s.order, b.Name())
	}
	return s
}

func (s *Service) Has(name string) bool {
	_, ok := s.backends[name]
	return ok
}

// Ask: главный метод: "" и ошибка, если бэкенд не ответил и со второй попытки
func (s *Service) Ask(ctx context.Context, name string, chatID int64, query string) (string, error) {
	b, ok := s.backends[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}

	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	start := time.Now()
	reply, err := b.Ask(ctx, chatID, query)
	s.log.Info("ask",
		zap.String("backend", name),
		zap.Int64("chat_id", chatID),
		zap.Duration("took", time.Since(start)),
		zap.Int("reply_len", len(reply)),
		zap.Error(err),
	)
	if err != nil {
		s.notifyError(ctx, name, chatID, err)
		return "", err
	}
	return reply, nil
}

func (s *Service) AskWithAttachment(ctx context.Context, name string, chatID int64, query string, att Attachment) (string, error) {
	b, ok := s.backends[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	aa, ok := b.(attachmentAsker)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoAttachments, name)
	}

	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	reply, err := aa.AskWithAttachment(ctx, chatID, query, att)
	if err != nil {
		s.notifyError(ctx, name, chatID, err)
		return "", err
	}
	return reply, nil
}

// ForgetAll сбрасывает чат во всех бэкендах
func (s *Service) ForgetAll(ctx context.Context, chatID int64) error {
	var errs []error
	for _, name := range s.order {
		if err := s.backends[name].Reset(ctx, chatID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) EvictIdle(olderThan time.Duration) int {
	n := 0
	for _, name := range s.order {
		n += s.backends[name].EvictIdle(olderThan)
	}
	return n
}

func (s *Service) notifyError(ctx context.Context, name string, chatID int64, err error) {
	details := fmt.Sprintf("Бэкенд: %s\nЧат: %d", name, chatID)
	if name == "gpt" {
		details += "\n\n" + analyzeOpenAIError(err)
	}
	if nerr := s.notifier.Notify(context.WithoutCancel(ctx), err, details); nerr != nil {
		s.log.Warn("notify", zap.Error(nerr))
	}
}
