package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/libs/httpx"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"github.com/salonbook/agenda/services/booking-service/internal/storage"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type AuthHandler struct {
	users    UserStore
	logger   *slog.Logger
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuthHandler(users UserStore, logger *slog.Logger, secret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &AuthHandler{users: users, logger: logger, secret: secret, tokenTTL: tokenTTL, now: time.Now}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid json body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "username and password are required")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if errors.Is(err, storage.ErrUserNotFound) {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("load user failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "failed to load user")
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	token, err := auth.SignHS256(auth.NewClaims(user.ID, user.Username, user.Role, h.tokenTTL, h.now()), h.secret)
	if err != nil {
		h.logger.Error("sign token failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{Token: token, Role: user.Role, Username: user.Username, UserID: user.ID})
}
