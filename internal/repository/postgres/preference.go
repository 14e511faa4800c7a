package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/internal/repository"
)

type preferenceRepository struct {
	BaseRepository
}

func NewPreferenceRepository(base BaseRepository) repository.PreferenceRepository {
	return &preferenceRepository{base}
}

func (r *preferenceRepository) ListNotifiable(ctx context.Context) ([]model.ReminderPreference, error) {
	query := `
		SELECT p.user_id, u.email, p.push_enabled, p.email_enabled,
		       p.notification_time, p.time_zone, p.last_notified_at
		FROM reminder_preferences p
		JOIN users u ON u.id = p.user_id
		WHERE p.push_enabled OR p.email_enabled
	`

	var prefs []model.ReminderPreference
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("failed to list notifiable preferences: %w", err)
	}

	return prefs, nil
}

func (r *preferenceRepository) MarkNotified(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE reminder_preferences
		SET last_notified_at = $2
		WHERE user_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("failed to mark notified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("preference not found for user %s", userID)
	}

	return nil
}
