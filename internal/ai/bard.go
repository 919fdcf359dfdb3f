package ai

import (
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/store"
)

const bardTimeout = 30 * time.Second

type Bard struct {
	*wrapperChat
}

func NewBard(client *WrapperClient, keys []string, dialogs *store.Dict[WrapperSession], log *zap.Logger) *Bard {
	opts := map[string]any{
		"language": "ru",
		"timeout":  int(bardTimeout.Seconds()),
	}
	return &Bard{newWrapperChat("bard", client, keys, opts, 0, dialogs, log)}
}
