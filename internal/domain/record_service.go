package domain

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/tg_relay/internal/notificator"
	"github.com/Vovarama1992/tg_relay/internal/ports"
)

// сколько записей журнала отдаём админке за раз
const historyLimit = 200

type recordService struct {
	repo     ports.RecordRepo
	notifier notificator.Notificator
}

func NewRecordService(repo ports.RecordRepo, n notificator.Notificator) ports.RecordService {
	return &recordService{
		repo:     repo,
		notifier: n,
	}
}

func (s *recordService) AddExchange(ctx context.Context, chatID int64, backend, question, answer string) error {
	if _, err := s.repo.Create(ctx, chatID, backend, "user", question); err != nil {
		return s.fail(ctx, err, fmt.Sprintf("Ошибка записи вопроса в журнал: chat=%d", chatID))
	}
	if answer == "" {
		return nil
	}
	if _, err := s.repo.Create(ctx, chatID, backend, "assistant", answer); err != nil {
		return s.fail(ctx, err, fmt.Sprintf("Ошибка записи ответа в журнал: chat=%d", chatID))
	}
	return nil
}

func (s *recordService) GetHistory(ctx context.Context, chatID int64) ([]ports.Record, error) {
	return s.repo.GetHistory(ctx, chatID, historyLimit)
}

func (s *recordService) ListChats(ctx context.Context) ([]ports.ChatBackends, error) {
	return s.repo.ListChats(ctx)
}

func (s *recordService) DeleteChatHistory(ctx context.Context, chatID int64) error {
	if err := s.repo.DeleteByChat(ctx, chatID); err != nil {
		return s.fail(ctx, err, fmt.Sprintf("Ошибка очистки журнала: chat=%d", chatID))
	}
	return nil
}

func (s *recordService) fail(ctx context.Context, err error, details string) error {
	_ = s.notifier.Notify(ctx, err, details)
	return err
}
