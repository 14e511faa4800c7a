package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/internal/repository"
	"github.com/plantona/plantona-api/pkg/security"
)

// Service owns the push subscription lifecycle. All operations are idempotent
// at the (user, endpoint) granularity.
type Service interface {
	// Register stores a device registration, replacing any prior row for the
	// same (user, endpoint).
	Register(ctx context.Context, userID uuid.UUID, endpoint string, keys model.SubscriptionKeys) error
	// Unregister removes every subscription for a user (explicit opt-out).
	Unregister(ctx context.Context, userID uuid.UUID) error
	// RemoveEndpoint drops a single endpoint. Safe to call when the row is
	// already gone; the delivery engine uses it for pruning.
	RemoveEndpoint(ctx context.Context, endpoint string) error
	// ListForUser returns the user's subscriptions with usable key material.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
}

type service struct {
	repo repository.SubscriptionRepository
	enc  security.Encryptor
}

// NewService creates a subscription service. enc may be nil, in which case key
// material is stored as received.
func NewService(repo repository.SubscriptionRepository, enc security.Encryptor) Service {
	return &service{repo: repo, enc: enc}
}

func (s *service) Register(ctx context.Context, userID uuid.UUID, endpoint string, keys model.SubscriptionKeys) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if keys.P256dh == "" || keys.Auth == "" {
		return fmt.Errorf("subscription keys are required")
	}

	auth := keys.Auth
	if s.enc != nil {
		encrypted, err := security.EncryptString(s.enc, keys.Auth)
		if err != nil {
			return fmt.Errorf("failed to encrypt subscription key: %w", err)
		}
		auth = encrypted
	}

	sub := &model.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   keys.P256dh,
		Auth:     auth,
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}

	return nil
}

func (s *service) Unregister(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteAllForUser(ctx, userID)
}

func (s *service) RemoveEndpoint(ctx context.Context, endpoint string) error {
	return s.repo.DeleteByEndpoint(ctx, endpoint)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.enc == nil {
		return subs, nil
	}

	for i := range subs {
		plain, err := security.DecryptString(s.enc, subs[i].Auth)
		if err != nil {
			// Rows written before encryption was enabled stay usable as-is.
			continue
		}
		subs[i].Auth = plain
	}

	return subs, nil
}
