package discovery

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/internal/repository"
	"github.com/plantona/plantona-api/pkg/errors"
	"github.com/plantona/plantona-api/pkg/logger"
)

const notificationTimeLayout = "15:04"

// Service answers "which users are due for a reminder right now". It is
// read-only: marking users notified belongs to the dispatch stage, so a crash
// between discovery and delivery never suppresses a later attempt.
type Service struct {
	repo      repository.PreferenceRepository
	window    time.Duration
	locations *gocache.Cache
	log       *logger.Logger
}

// NewService creates a discovery service. window is the tolerance after a
// user's notification time during which they count as due; it defaults to one
// minute.
func NewService(repo repository.PreferenceRepository, window time.Duration, log *logger.Logger) *Service {
	if window <= 0 {
		window = time.Minute
	}
	return &Service{
		repo:      repo,
		window:    window,
		locations: gocache.New(24*time.Hour, time.Hour),
		log:       log,
	}
}

// DiscoverDueUsers selects every user whose local wall-clock time falls within
// the notification window and who has not been notified yet today (in their own
// zone). A storage error aborts the whole run.
func (s *Service) DiscoverDueUsers(ctx context.Context, now time.Time) ([]model.EligibleUser, error) {
	prefs, err := s.repo.ListNotifiable(ctx)
	if err != nil {
		return nil, errors.Storage("discovery", err)
	}

	due := make([]model.EligibleUser, 0, len(prefs))
	for _, pref := range prefs {
		ok, err := s.isDue(pref, now)
		if err != nil {
			// A malformed zone or time on one record never aborts the run.
			s.log.ZL.Warn().
				Err(err).
				Str("user_id", pref.UserID.String()).
				Msg("skipping preference with invalid schedule")
			continue
		}
		if !ok {
			continue
		}

		due = append(due, model.EligibleUser{
			UserID:           pref.UserID,
			Email:            pref.Email,
			PushEnabled:      pref.PushEnabled,
			EmailEnabled:     pref.EmailEnabled,
			NotificationTime: pref.NotificationTime,
			TimeZone:         pref.TimeZone,
		})
	}

	return due, nil
}

func (s *Service) isDue(pref model.ReminderPreference, now time.Time) (bool, error) {
	if !pref.PushEnabled && !pref.EmailEnabled {
		return false, nil
	}

	loc, err := s.location(pref.TimeZone)
	if err != nil {
		return false, fmt.Errorf("invalid time zone %q: %w", pref.TimeZone, err)
	}

	target, err := time.Parse(notificationTimeLayout, pref.NotificationTime)
	if err != nil {
		return false, fmt.Errorf("invalid notification time %q: %w", pref.NotificationTime, err)
	}

	local := now.In(loc)
	anchor := time.Date(local.Year(), local.Month(), local.Day(), target.Hour(), target.Minute(), 0, 0, loc)

	elapsed := local.Sub(anchor)
	if elapsed < 0 || elapsed >= s.window {
		return false, nil
	}

	if pref.LastNotifiedAt != nil {
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if !pref.LastNotifiedAt.In(loc).Before(midnight) {
			return false, nil
		}
	}

	return true, nil
}

func (s *Service) location(name string) (*time.Location, error) {
	if cached, ok := s.locations.Get(name); ok {
		return cached.(*time.Location), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}

	s.locations.Set(name, loc, gocache.DefaultExpiration)
	return loc, nil
}
