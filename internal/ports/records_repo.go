package ports

import (
	"context"
	"time"
)

// DTO для журнала переписки
type Record struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Backend   string    `json:"backend"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// DTO для списка чатов и бэкендов, с которыми они говорили
type ChatBackends struct {
	ChatID   int64    `json:"chat_id"`
	Backends []string `json:"backends"`
}

// Репозиторий Postgres
type RecordRepo interface {
	Create(ctx context.Context, chatID int64, backend, role, text string) (int64, error)
	GetHistory(ctx context.Context, chatID int64, limit int) ([]Record, error)
	ListChats(ctx context.Context) ([]ChatBackends, error)
	DeleteByChat(ctx context.Context, chatID int64) error
}
