package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/libs/httpx"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"github.com/salonbook/agenda/services/booking-service/internal/notify"
)

type SubscriptionSaver interface {
	Save(ctx context.Context, s *model.PushSubscription) error
}

type PushHandler struct {
	subs      SubscriptionSaver
	publicKey string
	logger    *slog.Logger
}

func NewPushHandler(subs SubscriptionSaver, vapidPublicKey string, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, publicKey: vapidPublicKey, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	ExpoToken string `json:"expo_token"`
}

func (h *PushHandler) VAPIDPublicKey(w http.ResponseWriter, _ *http.Request) {
	if h.publicKey == "" {
		httpx.WriteError(w, http.StatusNotFound, "not_configured", "web push is not configured")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"publicKey": h.publicKey})
}

// SubscribeAdmin registers the caller's device for booking notifications.
// The body is either a browser PushSubscription or an Expo push token.
func (h *PushHandler) SubscribeAdmin(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid json body")
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	sub := model.PushSubscription{UserID: claims.Subject}

	switch token := strings.TrimSpace(req.ExpoToken); {
	case token != "":
		if !notify.ValidExpoToken(token) {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid expo push token")
			return
		}
		sub.Kind = model.SubscriptionExpo
		sub.Endpoint = token
	case strings.TrimSpace(req.Endpoint) != "":
		if req.Keys.P256dh == "" || req.Keys.Auth == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "keys.p256dh and keys.auth are required")
			return
		}
		sub.Kind = model.SubscriptionWebPush
		sub.Endpoint = strings.TrimSpace(req.Endpoint)
		sub.P256dh = req.Keys.P256dh
		sub.Auth = req.Keys.Auth
	default:
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "endpoint or expo_token is required")
		return
	}

	if err := h.subs.Save(r.Context(), &sub); err != nil {
		h.logger.Error("save push subscription failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "failed to save subscription")
		return
	}
	h.logger.Info("push subscription saved", "user_id", sub.UserID, "kind", sub.Kind)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
