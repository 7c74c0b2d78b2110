package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountservice "github.com/maumchat/backend/internal/service/account"
	"github.com/maumchat/backend/internal/store"
	"github.com/maumchat/backend/pkg/utils"
)

// Handler exposes account registration over HTTP.
type Handler struct {
	accountSvc *accountservice.Service
}

// New creates the account handler.
func New(accountSvc *accountservice.Service) *Handler {
	return &Handler{accountSvc: accountSvc}
}

// RegisterRoutes mounts the account endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload accountservice.Signup
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.accountSvc.Register(r.Context(), payload); err != nil {
		switch {
		case errors.Is(err, accountservice.ErrMissingFields):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrDuplicateUser):
			utils.RespondError(w, http.StatusBadRequest, "이미 사용 중인 아이디입니다.")
		default:
			utils.RespondError(w, http.StatusServiceUnavailable, "storage unavailable")
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message": "회원가입 성공",
		"userId":  payload.UserID,
	})
}
