package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantona/plantona-api/internal/email"
	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/pkg/logger"
	"github.com/plantona/plantona-api/pkg/metrics"
	"github.com/plantona/plantona-api/pkg/worker"
)

// DeliveryEngine is the per-user fan-out stage.
type DeliveryEngine interface {
	DeliverTo(ctx context.Context, user model.EligibleUser) model.DispatchOutcome
}

// NotifiedMarker records the last-notified write-back after a user's dispatch.
type NotifiedMarker interface {
	MarkNotified(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// Service is the per-user dispatch coordinator. Each user is processed as one
// isolated unit of work on a bounded pool; a crash, timeout, or error while
// processing user A has zero effect on users B..N.
type Service struct {
	engine   DeliveryEngine
	marker   NotifiedMarker
	emailSvc email.Service
	pool     *worker.Pool
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewService creates the coordinator. emailSvc may be nil when the email
// channel is not configured.
func NewService(engine DeliveryEngine, marker NotifiedMarker, emailSvc email.Service, pool *worker.Pool, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		engine:   engine,
		marker:   marker,
		emailSvc: emailSvc,
		pool:     pool,
		log:      log,
		metrics:  m,
	}
}

// DispatchAll runs one dispatch unit per eligible user and folds the outcomes
// into a run report. The run always completes; individual failures are
// contained and counted.
func (s *Service) DispatchAll(ctx context.Context, users []model.EligibleUser) model.RunReport {
	start := time.Now()
	outcomes := make([]model.DispatchOutcome, len(users))

	tasks := make([]worker.Task, len(users))
	for i, user := range users {
		i, user := i, user
		tasks[i] = func(ctx context.Context) {
			outcomes[i] = s.DispatchOne(ctx, user)
		}
	}

	s.pool.Run(ctx, tasks)

	// A task skipped by cancellation leaves a zero outcome; record it as a
	// failure for that user rather than dropping it.
	for i, outcome := range outcomes {
		if outcome.UserID == uuid.Nil {
			outcomes[i] = model.DispatchOutcome{
				UserID: users[i].UserID,
				Email:  users[i].Email,
				Error:  "dispatch not attempted",
			}
		}
	}

	report := Aggregate(outcomes)

	if s.metrics != nil {
		s.metrics.RunsTotal.Inc()
		s.metrics.RunDuration.Observe(time.Since(start).Seconds())
		s.metrics.EligibleUsers.Observe(float64(len(users)))
	}
	s.log.ZL.Info().
		Int("total", report.Summary.Total).
		Int("successful", report.Summary.Successful).
		Int("failed", report.Summary.Failed).
		Dur("duration", time.Since(start)).
		Msg("notification run completed")

	return report
}

// DispatchOne processes a single user. It never panics outward; any fault is
// folded into the returned outcome.
func (s *Service) DispatchOne(ctx context.Context, user model.EligibleUser) (outcome model.DispatchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = model.DispatchOutcome{
				UserID:  user.UserID,
				Email:   user.Email,
				Success: false,
				Error:   fmt.Sprintf("dispatch fault: %v", r),
			}
			s.observeOutcome(outcome)
		}
	}()

	notified := false

	if user.PushEnabled {
		outcome = s.engine.DeliverTo(ctx, user)
		notified = outcome.Success
	} else {
		outcome = model.DispatchOutcome{UserID: user.UserID, Email: user.Email}
		outcome.Error = "push disabled for user"
	}

	if user.EmailEnabled && s.emailSvc != nil {
		if err := s.emailSvc.SendReminder(ctx, user.Email); err != nil {
			s.log.ZL.Warn().
				Err(err).
				Str("user_id", user.UserID.String()).
				Msg("email reminder failed")
			if !user.PushEnabled {
				outcome.Error = "email delivery failed"
			}
		} else {
			notified = true
			// Email-only users succeed through the email channel.
			if !user.PushEnabled {
				outcome.Success = true
				outcome.Error = ""
			}
		}
	}

	if notified {
		if err := s.marker.MarkNotified(ctx, user.UserID, time.Now()); err != nil {
			// At-least-once: a lost marker means a possible duplicate on the
			// next run, never a missed reminder.
			s.log.ZL.Error().
				Err(err).
				Str("user_id", user.UserID.String()).
				Msg("failed to record last-notified marker")
		}
	}

	s.observeOutcome(outcome)
	return outcome
}

func (s *Service) observeOutcome(outcome model.DispatchOutcome) {
	if s.metrics == nil {
		return
	}
	status := "failed"
	if outcome.Success {
		status = "successful"
	}
	s.metrics.DispatchOutcomes.WithLabelValues(status).Inc()
}

// Aggregate folds outcomes into the run-level summary. Pure.
func Aggregate(outcomes []model.DispatchOutcome) model.RunReport {
	summary := model.RunSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	return model.RunReport{
		Success:   true,
		Message:   fmt.Sprintf("notified %d of %d due users", summary.Successful, summary.Total),
		Summary:   summary,
		Results:   outcomes,
		Timestamp: time.Now().UTC(),
	}
}
