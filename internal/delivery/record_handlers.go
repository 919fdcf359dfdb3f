package delivery

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/ports"
)

// RecordHandler отдаёт журнал переписки
type RecordHandler struct {
	recordService ports.RecordService
	log           *zap.Logger
}

func NewRecordHandler(recordService ports.RecordService, log *zap.Logger) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
		log:           log.Named("records"),
	}
}

func (h *RecordHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		http.Error(w, "invalid chat_id", http.StatusBadRequest)
		return
	}

	history, err := h.recordService.GetHistory(r.Context(), chatID)
	if err != nil {
		h.log.Error("get history", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []ports.Record{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *RecordHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		http.Error(w, "invalid chat_id", http.StatusBadRequest)
		return
	}

	if err := h.recordService.DeleteChatHistory(r.Context(), chatID); err != nil {
		h.log.Error("delete history", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	list, err := h.recordService.ListChats(r.Context())
	if err != nil {
		h.log.Error("list chats", zap.Error(err))
		http.Error(w, "failed to list chats", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []ports.ChatBackends{}
	}
	writeJSON(w, http.StatusOK, list)
}
