package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/maumchat/backend/internal/service/chat"
	"github.com/maumchat/backend/internal/store"
	"github.com/maumchat/backend/pkg/utils"
)

// Handler exposes the chat pipeline over HTTP.
type Handler struct {
	chatSvc *chatservice.Service
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/context/{userID}", h.handleContext)
	r.Get("/chat/emotions/{userID}", h.handleEmotions)
}

// handleChat records one message and returns the reply with the rolling
// context.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	exchange, err := h.chatSvc.HandleMessage(r.Context(), payload.UserID, payload.Message)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, exchange)
}

// handleContext returns the recent context window for a user.
func (h *Handler) handleContext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	turns, err := h.chatSvc.RecentTurns(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"recentMessages": turns})
}

// handleEmotions returns the most recent emotion records for a user.
func (h *Handler) handleEmotions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.chatSvc.RecentRecords(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"emotionHistory": records})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatservice.ErrUserRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
