package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
}

type SubscriptionKind string

const (
	SubscriptionWebPush SubscriptionKind = "webpush"
	SubscriptionExpo    SubscriptionKind = "expo"
)

// PushSubscription is a device that receives admin notifications. Web Push
// uses Endpoint/P256dh/Auth, Expo uses Endpoint as the push token.
type PushSubscription struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      SubscriptionKind `json:"kind"`
	Endpoint  string           `json:"endpoint"`
	P256dh    string           `json:"-"`
	Auth      string           `json:"-"`
	CreatedAt time.Time        `json:"created_at"`
}
