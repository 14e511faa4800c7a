package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plantona/plantona-api/internal/model"
)

// PreferenceRepository is the reminder eligibility index. The pipeline reads
// preferences and writes back only the last-notified marker.
type PreferenceRepository interface {
	// ListNotifiable returns every preference with at least one channel enabled.
	// Window and same-day filtering happen in the discovery service because the
	// local-time math depends on each record's zone.
	ListNotifiable(ctx context.Context) ([]model.ReminderPreference, error)
	// MarkNotified records that the user was notified at the given instant.
	MarkNotified(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// SubscriptionRepository persists push endpoint registrations.
type SubscriptionRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	// Upsert replaces any existing row for (user_id, endpoint) with sub.
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	// DeleteAllForUser removes every subscription for a user. Zero rows is fine.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
	// DeleteByEndpoint removes the row with the given endpoint. A missing row is
	// a no-op, not an error, so concurrent pruning is harmless.
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
