package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/internal/repository"
)

type subscriptionRepository struct {
	BaseRepository
}

func NewSubscriptionRepository(base BaseRepository) repository.SubscriptionRepository {
	return &subscriptionRepository{base}
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
		WHERE user_id = $1
		ORDER BY created_at
	`

	var subs []model.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, nil
}

// Upsert deletes any prior registration for (user_id, endpoint) and inserts the
// new one in a single transaction, so the stored key material always reflects
// the most recent registration from that device.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	deleteQuery := `
		DELETE FROM push_subscriptions
		WHERE user_id = $1 AND endpoint = $2
	`
	insertQuery := `
		INSERT INTO push_subscriptions (
			id, user_id, endpoint, p256dh, auth, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	sub.ID = uuid.New()
	sub.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, sub.UserID, sub.Endpoint); err != nil {
			return fmt.Errorf("failed to delete prior subscription: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery,
			sub.ID,
			sub.UserID,
			sub.Endpoint,
			sub.P256dh,
			sub.Auth,
			sub.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert subscription: %w", err)
		}
		return nil
	})
}

func (r *subscriptionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM push_subscriptions WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete subscriptions: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE endpoint = $1`

	if _, err := r.db.ExecContext(ctx, query, endpoint); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	return nil
}
