package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/store"
)

// длиннее Claude не принимает
const claudeMaxQuery = 90000

type Claude struct {
	*wrapperChat
}

func NewClaude(client *WrapperClient, keys []string, dialogs *store.Dict[WrapperSession], log *zap.Logger) *Claude {
	return &Claude{newWrapperChat("claude", client, keys, nil, claudeMaxQuery, dialogs, log)}
}

// AskWithAttachment отправляет вопрос вместе с файлом
func (c *Claude) AskWithAttachment(ctx context.Context, chatID int64, query string, att Attachment) (string, error) {
	return c.ask(ctx, chatID, query, &att)
}
