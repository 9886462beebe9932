package notify

import (
	"context"
	"fmt"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

// ExpoSender delivers to mobile devices registered through Expo.
type ExpoSender struct {
	client *expo.PushClient
}

// NewExpoSender uses the public Expo endpoint when cfg is nil.
func NewExpoSender(cfg *expo.ClientConfig) *ExpoSender {
	return &ExpoSender{client: expo.NewPushClient(cfg)}
}

func (s *ExpoSender) Kind() model.SubscriptionKind { return model.SubscriptionExpo }

func (s *ExpoSender) Send(_ context.Context, sub model.PushSubscription, msg Message) error {
	token, err := expo.NewExponentPushToken(sub.Endpoint)
	if err != nil {
		return fmt.Errorf("expo token %q: %w", sub.Endpoint, ErrGone)
	}
	resp, err := s.client.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{token},
		Title:    msg.Title,
		Body:     msg.Body,
		Data:     msg.Data,
		Sound:    "default",
		Priority: expo.HighPriority,
	})
	if err != nil {
		return fmt.Errorf("expo publish: %w", err)
	}
	if err := resp.ValidateResponse(); err != nil {
		if resp.Details["error"] == expo.ErrorDeviceNotRegistered {
			return fmt.Errorf("expo: %v: %w", err, ErrGone)
		}
		return fmt.Errorf("expo: %w", err)
	}
	return nil
}

// ValidExpoToken reports whether token looks like an Expo push token.
func ValidExpoToken(token string) bool {
	_, err := expo.NewExponentPushToken(token)
	return err == nil
}
