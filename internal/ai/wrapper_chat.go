package ai

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/session"
	"github.com/Vovarama1992/tg_relay/internal/store"
)

// WrapperSession: беседа на стороне обёртки и ключ, которым она открыта
type WrapperSession struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

// wrapperChat: бэкенд, у которого история живёт на стороне обёртки
type wrapperChat struct {
	name     string
	client   *WrapperClient
	keys     []string
	options  map[string]any
	maxQuery int
	sessions *session.Registry[WrapperSession]
}

func newWrapperChat(
	name string,
	client *WrapperClient,
	keys []string,
	options map[string]any,
	maxQuery int,
	dialogs *store.Dict[WrapperSession],
	log *zap.Logger,
) *wrapperChat {
	w := &wrapperChat{
		name:     name,
		client:   client,
		keys:     keys,
		options:  options,
		maxQuery: maxQuery,
	}

	var opts []session.Option[WrapperSession]
	if dialogs != nil {
		opts = append(opts, session.WithStore[WrapperSession](dialogs))
	}
	w.sessions = session.New[WrapperSession](name, w.newSession, log, opts...)
	return w
}

// newSession берёт случайный ключ и открывает новую беседу
func (w *wrapperChat) newSession(ctx context.Context, _ string) (WrapperSession, error) {
	key := randomKey(w.keys)
	id, err := w.client.NewConversation(ctx, key, w.options)
	if err != nil {
		return WrapperSession{}, err
	}
	return WrapperSession{Key: key, ID: id}, nil
}

func (w *wrapperChat) Name() string { return w.name }

func (w *wrapperChat) Ask(ctx context.Context, chatID int64, query string) (string, error) {
	return w.ask(ctx, chatID, query, nil)
}

func (w *wrapperChat) ask(ctx context.Context, chatID int64, query string, att *Attachment) (string, error) {
	if w.maxQuery > 0 {
		query = truncateRunes(query, w.maxQuery)
	}

	return w.sessions.Do(ctx, store.ChatKey(chatID), func(ctx context.Context, s WrapperSession) (string, error) {
		resp, err := w.client.Ask(ctx, askRequest{
			ConversationID: s.ID,
			Key:            s.Key,
			Query:          query,
			Options:        w.options,
			Attachment:     att,
		})
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(resp.Text), nil
	})
}

func (w *wrapperChat) Reset(ctx context.Context, chatID int64) error {
	return w.sessions.Reset(ctx, store.ChatKey(chatID))
}

func (w *wrapperChat) EvictIdle(olderThan time.Duration) int {
	return w.sessions.Evict(olderThan)
}

func randomKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[rand.IntN(len(keys))]
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
