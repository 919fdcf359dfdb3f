package ai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Backend: собеседник, которому бот пересылает вопросы чата
type Backend interface {
	Name() string
	// Ask возвращает ответ или "" с ошибкой после повторной попытки
	Ask(ctx context.Context, chatID int64, query string) (string, error)
	// Reset забывает сессию чата
	Reset(ctx context.Context, chatID int64) error
	// EvictIdle выгружает из памяти простаивающие сессии
	EvictIdle(olderThan time.Duration) int
}

// Message: запись истории диалога
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}
