package ai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/session"
	"github.com/Vovarama1992/tg_relay/internal/store"
)

const refusalReply = "Не хочу говорить об этом."

// GPT: OpenAI-совместимый чат с историей
type GPT struct {
	pool     *OpenAIPool
	history  *History
	sessions *session.Registry[*OpenAIClient]
	log      *zap.Logger
}

func NewGPT(pool *OpenAIPool, history *History, log *zap.Logger) *GPT {
	g := &GPT{
		pool:    pool,
		history: history,
		log:     log.Named("gpt"),
	}
	// сессия чата: клиент с закреплённым ключом; при ошибке берём другой
	g.sessions = session.New[*OpenAIClient]("gpt", func(context.Context, string) (*OpenAIClient, error) {
		return pool.Pick()
	}, log)
	return g
}

func (g *GPT) Name() string { return "gpt" }

func (g *GPT) Ask(ctx context.Context, chatID int64, query string) (string, error) {
	return g.sessions.Do(ctx, store.ChatKey(chatID), func(ctx context.Context, c *OpenAIClient) (string, error) {
		return g.ask(ctx, c, chatID, query)
	})
}

func (g *GPT) ask(ctx context.Context, c *OpenAIClient, chatID int64, query string) (string, error) {
	past := g.history.Trim(g.history.Get(chatID), historyBudget)
	msgs := append(past, Message{Role: openai.ChatMessageRoleUser, Content: query})

	start := time.Now()
	comp, err := c.GetCompletion(ctx, toOpenAI(msgs))
	if err != nil && isContextLengthError(err) {
		g.log.Info("context overflow, shrinking history", zap.Int64("chat_id", chatID))

		past = g.history.Trim(past, historyShrinkBudget)
		if len(past) >= 2 {
			past = past[:len(past)-2]
		} else {
			past = nil
		}
		msgs = append(past, Message{Role: openai.ChatMessageRoleUser, Content: query})
		comp, err = c.GetCompletion(ctx, toOpenAI(msgs))
	}
	g.log.Debug("completion", zap.Int64("chat_id", chatID), zap.Duration("took", time.Since(start)), zap.Error(err))
	if err != nil {
		return "", err
	}

	switch {
	case comp.Filtered:
		// бот обиделся: выкидываем вопрос и предыдущую реплику
		keep := msgs[:max(len(msgs)-2, 0)]
		g.save(ctx, chatID, keep)
		return refusalReply, nil

	case comp.Text == "":
		// пустой ответ: вопрос в истории не нужен
		g.save(ctx, chatID, past)
		return "", nil
	}

	msgs = append(msgs, Message{Role: openai.ChatMessageRoleAssistant, Content: comp.Text})
	g.save(ctx, chatID, msgs)
	return comp.Text, nil
}

func (g *GPT) save(ctx context.Context, chatID int64, msgs []Message) {
	if err := g.history.Save(ctx, chatID, msgs); err != nil {
		g.log.Warn("save history", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// Reset стирает историю и забывает ключ чата
func (g *GPT) Reset(ctx context.Context, chatID int64) error {
	return g.sessions.Reset(ctx, store.ChatKey(chatID), func(ctx context.Context) error {
		return g.history.Clear(ctx, chatID)
	})
}

func (g *GPT) EvictIdle(olderThan time.Duration) int {
	return g.sessions.Evict(olderThan)
}

// Complete: разовый запрос без истории чата
func (g *GPT) Complete(ctx context.Context, prompt string) (string, error) {
	return g.pool.Complete(ctx, prompt)
}
