package delivery

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Vovarama1992/tg_relay/internal/ports"
)

// NewRouter собирает админское API; hRecords может быть nil
func NewRouter(
	hRecords *RecordHandler,
	hChats *ChatHandler,
	hAuth *AuthHandler,
	authSvc ports.AuthService,
) chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}),
		httprate.LimitByIP(100, time.Minute),
	)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// --- auth ---
	r.With(httprate.LimitByIP(10, time.Minute)).
		Post("/auth/login", hAuth.Login)

	// --- protected ---
	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(authSvc))

		// --- журнал, только с базой ---
		if hRecords != nil {
			pr.Get("/chats", hRecords.ListChats)
			pr.Get("/history/{chat_id}", hRecords.GetHistory)
			pr.Delete("/history/{chat_id}", hRecords.DeleteHistory)
		}

		// --- настройки чатов ---
		pr.Get("/chats/{chat_id}/settings", hChats.GetSettings)
		pr.Patch("/chats/{chat_id}/settings", hChats.UpdateSettings)
		pr.Post("/chats/{chat_id}/reset", hChats.Reset)
	})

	return r
}
