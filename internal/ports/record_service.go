package ports

import "context"

type RecordService interface {
	// AddExchange пишет вопрос и ответ одной парой
	AddExchange(ctx context.Context, chatID int64, backend, question, answer string) error
	GetHistory(ctx context.Context, chatID int64) ([]Record, error)
	ListChats(ctx context.Context) ([]ChatBackends, error)
	DeleteChatHistory(ctx context.Context, chatID int64) error
}
