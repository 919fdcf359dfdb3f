package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/session"
	"github.com/Vovarama1992/tg_relay/internal/store"
)

var bingOptions = map[string]any{"style": "creative"}

// Bing пользуется той же историей, что и GPT, и шлёт её целиком текстом
type Bing struct {
	client   *WrapperClient
	history  *History
	sessions *session.Registry[WrapperSession]
	log      *zap.Logger
}

func NewBing(client *WrapperClient, history *History, log *zap.Logger) *Bing {
	b := &Bing{
		client:  client,
		history: history,
		log:     log.Named("bing"),
	}
	b.sessions = session.New[WrapperSession]("bing", func(ctx context.Context, _ string) (WrapperSession, error) {
		id, err := client.NewConversation(ctx, "", bingOptions)
		return WrapperSession{ID: id}, err
	}, log)
	return b
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Ask(ctx context.Context, chatID int64, query string) (string, error) {
	return b.sessions.Do(ctx, store.ChatKey(chatID), func(ctx context.Context, s WrapperSession) (string, error) {
		past := b.history.Trim(b.history.Get(chatID), historyBudget)
		msgs := append(past, Message{Role: openai.ChatMessageRoleUser, Content: query})

		text, err := b.ask(ctx, s.ID, formatPlain(msgs))
		if err != nil {
			return "", err
		}
		if text == "" {
			b.save(ctx, chatID, past)
			return "", nil
		}

		b.save(ctx, chatID, append(msgs, Message{Role: openai.ChatMessageRoleAssistant, Content: text}))
		return text, nil
	})
}

// Once: вопрос в новой беседе, без истории чата
func (b *Bing) Once(ctx context.Context, prompt string) (string, error) {
	id, err := b.client.NewConversation(ctx, "", bingOptions)
	if err != nil {
		return "", err
	}
	return b.ask(ctx, id, prompt)
}

func (b *Bing) ask(ctx context.Context, conversationID, prompt string) (string, error) {
	resp, err := b.client.Ask(ctx, askRequest{
		ConversationID: conversationID,
		Query:          prompt,
		Options:        bingOptions,
	})
	if err != nil {
		return "", err
	}
	return cleanBingReply(resp.Text, resp.References), nil
}

func (b *Bing) save(ctx context.Context, chatID int64, msgs []Message) {
	if err := b.history.Save(ctx, chatID, msgs); err != nil {
		b.log.Warn("save history", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bing) Reset(ctx context.Context, chatID int64) error {
	return b.sessions.Reset(ctx, store.ChatKey(chatID), func(ctx context.Context) error {
		return b.history.Clear(ctx, chatID)
	})
}

func (b *Bing) EvictIdle(olderThan time.Duration) int {
	return b.sessions.Evict(olderThan)
}

// cleanBingReply убирает приветствие и превращает сноски [^n^] в ссылки
func cleanBingReply(text, references string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "Bing: ")
	if strings.HasPrefix(text, "Привет, это Bing.") {
		text = strings.TrimSpace(strings.TrimPrefix(text, "Привет, это Bing."))
	}

	for i, link := range parseReferences(references) {
		n := i + 1
		text = strings.ReplaceAll(text, fmt.Sprintf("[^%d^]", n), fmt.Sprintf("[ <%d> ](%s)", n, link))
	}
	return text
}

// parseReferences читает блок вида
//
//	[1]: https://example.com "title"
//
// и останавливается на первой строке другого вида.
func parseReferences(block string) []string {
	var links []string
	for _, line := range strings.Split(block, "\n") {
		s := strings.TrimSpace(line)
		if len(s) <= 2 || s[0] != '[' || s[1] < '0' || s[1] > '9' {
			break
		}
		_, rest, ok := strings.Cut(s, "]: ")
		if !ok {
			break
		}
		link, _, _ := strings.Cut(rest, ` "`)
		links = append(links, link)
	}
	return links
}
