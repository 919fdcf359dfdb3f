package ai

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/tg_relay/internal/domain"
	"github.com/Vovarama1992/tg_relay/internal/store"
)

const (
	gptSystemPrompt = "Ты информационная система отвечающая на запросы юзера."

	historyMaxMessages  = 10
	historyBudget       = 2000
	historyShrinkBudget = 1000
)

// History: общая история диалогов GPT и Bing, по чату
type History struct {
	dialogs *store.Dict[[]Message]
	counter domain.TokenCounter
}

func NewHistory(dialogs *store.Dict[[]Message], counter domain.TokenCounter) *History {
	return &History{dialogs: dialogs, counter: counter}
}

func (h *History) Get(chatID int64) []Message {
	msgs, _ := h.dialogs.Get(store.ChatKey(chatID))
	return append([]Message(nil), msgs...)
}

// Save перезаписывает историю чата целиком. GPT и Bing держат разные
// блокировки, поэтому при одновременных запросах в один чат побеждает
// последний записавший, а обмен другого бэкенда теряется.
func (h *History) Save(ctx context.Context, chatID int64, msgs []Message) error {
	return h.dialogs.Set(ctx, store.ChatKey(chatID), msgs)
}

func (h *History) Clear(ctx context.Context, chatID int64) error {
	return h.dialogs.Delete(ctx, store.ChatKey(chatID))
}

// Trim keeps the last historyMaxMessages and then drops the oldest while the
// dialog together with the system prompt is over budget.
func (h *History) Trim(msgs []Message, budget int) []Message {
	if len(msgs) > historyMaxMessages {
		msgs = msgs[len(msgs)-historyMaxMessages:]
	}
	for len(msgs) > 0 && h.Size(msgs) > budget {
		msgs = msgs[1:]
	}
	return append([]Message(nil), msgs...)
}

// Size меряет диалог вместе с системным промптом
func (h *History) Size(msgs []Message) int {
	if len(msgs) == 0 {
		return 0
	}
	var b strings.Builder
	b.WriteString(gptSystemPrompt)
	b.WriteByte(' ')
	for _, m := range msgs {
		b.WriteString(m.Content)
		b.WriteByte(' ')
	}
	return h.counter.Count(b.String())
}

func toOpenAI(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: gptSystemPrompt,
	})
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// formatPlain сворачивает историю в строки "role - content" для обёрток без истории
func formatPlain(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Role)
		b.WriteString(" - ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
