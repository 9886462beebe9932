package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/salonbook/agenda/libs/db"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

type SubscriptionRepository struct {
	pool *db.Pool
}

func NewSubscriptionRepository(pool *db.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Save registers a device, moving an already known endpoint to the new owner and keys.
func (r *SubscriptionRepository) Save(ctx context.Context, s *model.PushSubscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO push_subscriptions (id, user_id, kind, endpoint, p256dh, auth)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (endpoint) DO UPDATE
		SET user_id = EXCLUDED.user_id, kind = EXCLUDED.kind, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
		RETURNING id::text, created_at
	`, s.ID, s.UserID, s.Kind, s.Endpoint, s.P256dh, s.Auth).Scan(&s.ID, &s.CreatedAt)
}

// ListForRole returns the subscriptions of every user holding role.
func (r *SubscriptionRepository) ListForRole(ctx context.Context, role string) ([]model.PushSubscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.user_id::text, s.kind, s.endpoint, s.p256dh, s.auth, s.created_at
		FROM push_subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE u.role = $1
		ORDER BY s.created_at
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var s model.PushSubscription
		var kind string
		if err := rows.Scan(&s.ID, &s.UserID, &kind, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Kind = model.SubscriptionKind(kind)
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE id = $1`, id)
	return err
}
