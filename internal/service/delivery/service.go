package delivery

import (
	"context"
	"fmt"

	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/internal/push"
	"github.com/plantona/plantona-api/internal/service/subscription"
	"github.com/plantona/plantona-api/pkg/logger"
	"github.com/plantona/plantona-api/pkg/metrics"
)

// ErrNoSubscriptions is the user-facing message for a due user with no
// registered devices. It is an expected condition, not a system fault.
const ErrNoSubscriptions = "No subscriptions available"

// Service is the fan-out delivery engine: for a single user it attempts every
// subscription independently, prunes permanently dead endpoints, and reports an
// at-least-one-device outcome.
type Service struct {
	subs    subscription.Service
	sender  push.Sender
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewService(subs subscription.Service, sender push.Sender, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		subs:    subs,
		sender:  sender,
		log:     log,
		metrics: m,
	}
}

// DeliverTo sends the reminder payload to every device the user registered.
// One subscription's failure never stops the remaining attempts; the user
// succeeds if at least one device accepted the notification.
func (s *Service) DeliverTo(ctx context.Context, user model.EligibleUser) model.DispatchOutcome {
	outcome := model.DispatchOutcome{
		UserID: user.UserID,
		Email:  user.Email,
	}

	subs, err := s.subs.ListForUser(ctx, user.UserID)
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to load subscriptions: %v", err)
		return outcome
	}

	if len(subs) == 0 {
		outcome.Error = ErrNoSubscriptions
		return outcome
	}

	payload := push.ReminderPayload()
	results := make([]model.DeliveryResult, 0, len(subs))

	for _, sub := range subs {
		result := model.DeliveryResult{SubscriptionID: sub.ID}

		if err := s.sender.Send(ctx, sub, payload); err != nil {
			result.Class = push.Classify(err)
			results = append(results, result)

			if result.Class == model.ErrorClassPermanent {
				s.prune(ctx, user, sub)
			} else {
				s.log.ZL.Warn().
					Err(err).
					Str("user_id", user.UserID.String()).
					Str("subscription_id", sub.ID.String()).
					Msg("transient delivery failure, subscription retained")
			}
			s.observeDelivery(string(result.Class))
			continue
		}

		result.Success = true
		results = append(results, result)
		s.observeDelivery("success")
	}

	for _, r := range results {
		if r.Success {
			outcome.Success = true
			break
		}
	}
	if !outcome.Success {
		outcome.Error = fmt.Sprintf("all %d subscription deliveries failed", len(subs))
	}

	return outcome
}

// prune deletes a permanently invalid subscription. Attempted exactly once per
// detection; a delete race with another run is harmless because the repository
// delete is idempotent.
func (s *Service) prune(ctx context.Context, user model.EligibleUser, sub model.PushSubscription) {
	if err := s.subs.RemoveEndpoint(ctx, sub.Endpoint); err != nil {
		s.log.ZL.Error().
			Err(err).
			Str("user_id", user.UserID.String()).
			Str("subscription_id", sub.ID.String()).
			Msg("failed to prune dead subscription")
		return
	}

	if s.metrics != nil {
		s.metrics.PrunedSubscriptions.Inc()
	}
	s.log.ZL.Info().
		Str("user_id", user.UserID.String()).
		Str("subscription_id", sub.ID.String()).
		Msg("pruned dead subscription")
}

func (s *Service) observeDelivery(result string) {
	if s.metrics != nil {
		s.metrics.Deliveries.WithLabelValues(result).Inc()
	}
}
