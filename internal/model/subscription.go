package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionKeys carries the encryption material a browser hands out when it
// registers for push. Both values are opaque to us.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

// PushSubscription is one registered push endpoint for a user. At most one live
// row exists per (user_id, endpoint) pair; re-registering replaces the old row.
type PushSubscription struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
