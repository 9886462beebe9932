package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	// Subscriber is a contact URL or e-mail sent to push services.
	Subscriber string
	TTL        time.Duration
}

// WebPushSender delivers to browser subscriptions with VAPID authentication.
type WebPushSender struct {
	cfg  VAPIDConfig
	http *http.Client
}

func NewWebPushSender(cfg VAPIDConfig) *WebPushSender {
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &WebPushSender{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}
}

// GenerateVAPIDKeys returns a fresh (public, private) key pair.
func GenerateVAPIDKeys() (string, string, error) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	return pub, priv, err
}

func (s *WebPushSender) Kind() model.SubscriptionKind { return model.SubscriptionWebPush }

func (s *WebPushSender) PublicKey() string { return s.cfg.PublicKey }

func (s *WebPushSender) Send(ctx context.Context, sub model.PushSubscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.http,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             int(s.cfg.TTL.Seconds()),
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("web push status %d: %w", resp.StatusCode, ErrGone)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("web push returned status %d", resp.StatusCode)
	}
	return nil
}
