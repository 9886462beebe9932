package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/libs/httpx"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"github.com/salonbook/agenda/services/booking-service/internal/storage"
)

type UsersHandler struct {
	users  UserStore
	logger *slog.Logger
}

func NewUsersHandler(users UserStore, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, logger: logger}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "failed to list users")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid json body")
		return
	}
	user, err := NewUser(req.Username, req.Password, req.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := h.users.Create(r.Context(), &user); err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			httpx.WriteError(w, http.StatusConflict, "username_taken", "username already registered")
			return
		}
		h.logger.Error("create user failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "failed to create user")
		return
	}
	h.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	httpx.WriteJSON(w, http.StatusCreated, user)
}

// NewUser validates credentials and hashes the password. Role defaults to client.
func NewUser(username, password, role string) (model.User, error) {
	username = strings.TrimSpace(username)
	role = strings.TrimSpace(role)
	if role == "" {
		role = auth.RoleClient
	}
	switch {
	case username == "":
		return model.User{}, errors.New("username is required")
	case len(password) < 6:
		return model.User{}, errors.New("password must be at least 6 characters")
	case role != auth.RoleClient && role != auth.RoleAdmin:
		return model.User{}, errors.New("role must be admin or client")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	return model.User{Username: username, PasswordHash: hash, Role: role}, nil
}
