package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maumchat/backend/internal/handler/account"
	"github.com/maumchat/backend/internal/handler/chat"
	"github.com/maumchat/backend/internal/handler/stream"
	middlewarePkg "github.com/maumchat/backend/internal/middleware"
	aiService "github.com/maumchat/backend/internal/service/ai"
	accountService "github.com/maumchat/backend/internal/service/account"
	chatService "github.com/maumchat/backend/internal/service/chat"
	"github.com/maumchat/backend/internal/store"
	"github.com/maumchat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, accountSvc *accountService.Service, aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(chatSvc)
	accountHandler := account.New(accountSvc)
	streamHandler := stream.New(aiSvc, chatSvc)

	r.Route("/api", func(api chi.Router) {
		accountHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)

		// Streaming variant of POST /chat.
		api.Get("/chat/stream/{userID}", func(w http.ResponseWriter, r *http.Request) {
			userID := chi.URLParam(r, "userID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, userID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
				switch {
				case errors.Is(err, chatService.ErrUserRequired):
					utils.RespondError(w, http.StatusBadRequest, err.Error())
				case errors.Is(err, store.ErrUnavailable):
					utils.RespondError(w, http.StatusServiceUnavailable, "storage unavailable")
				default:
					utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
				}
			}
		})
	})

	return r
}
