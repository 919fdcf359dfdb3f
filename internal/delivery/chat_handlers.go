package delivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/chats"
)

// ChatSettings: настройки чата; *chats.Service подходит
type ChatSettings interface {
	Settings(ctx context.Context, chatID int64) (chats.Settings, error)
	SetName(ctx context.Context, chatID int64, name string) error
	SetBlocked(ctx context.Context, chatID int64, blocked bool) error
}

// SessionResetter забывает диалоги чата во всех бэкендах; *ai.Service подходит
type SessionResetter interface {
	ForgetAll(ctx context.Context, chatID int64) error
}

type ChatHandler struct {
	chats    ChatSettings
	sessions SessionResetter
	log      *zap.Logger
}

func NewChatHandler(chats ChatSettings, sessions SessionResetter, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, sessions: sessions, log: log.Named("chats")}
}

func (h *ChatHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		http.Error(w, "invalid chat_id", http.StatusBadRequest)
		return
	}

	s, err := h.chats.Settings(r.Context(), chatID)
	if err != nil {
		h.log.Error("get settings", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ChatHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		http.Error(w, "invalid chat_id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Blocked *bool   `json:"auto_translate_blocked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if req.Name != nil {
		err := h.chats.SetName(ctx, chatID, *req.Name)
		if errors.Is(err, chats.ErrBadName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			h.log.Error("set name", zap.Int64("chat_id", chatID), zap.Error(err))
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
	}
	if req.Blocked != nil {
		if err := h.chats.SetBlocked(ctx, chatID, *req.Blocked); err != nil {
			h.log.Error("set blocked", zap.Int64("chat_id", chatID), zap.Error(err))
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
	}

	h.GetSettings(w, r)
}

func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		http.Error(w, "invalid chat_id", http.StatusBadRequest)
		return
	}

	if err := h.sessions.ForgetAll(r.Context(), chatID); err != nil {
		h.log.Warn("reset", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
