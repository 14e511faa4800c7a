package model

import (
	"time"

	"github.com/google/uuid"
)

// ReminderPreference is a user's care-reminder settings row. It is owned by the
// account settings surface; the dispatch pipeline reads it and only ever writes
// the last-notified marker.
type ReminderPreference struct {
	UserID           uuid.UUID  `db:"user_id" json:"userId"`
	Email            string     `db:"email" json:"email"`
	PushEnabled      bool       `db:"push_enabled" json:"pushEnabled"`
	EmailEnabled     bool       `db:"email_enabled" json:"emailEnabled"`
	NotificationTime string     `db:"notification_time" json:"notificationTime"`
	TimeZone         string     `db:"time_zone" json:"timeZone"`
	LastNotifiedAt   *time.Time `db:"last_notified_at" json:"lastNotifiedAt,omitempty"`
}

// EligibleUser is produced by discovery for a single run and never persisted.
type EligibleUser struct {
	UserID           uuid.UUID `json:"userId" binding:"required"`
	Email            string    `json:"email"`
	PushEnabled      bool      `json:"pushEnabled"`
	EmailEnabled     bool      `json:"emailEnabled"`
	NotificationTime string    `json:"notificationTime"`
	TimeZone         string    `json:"timeZone"`
}
