package model

import (
	"time"

	"github.com/google/uuid"
)

// ErrorClass is the two-tier classification of a failed delivery attempt.
// Permanent failures mean the endpoint no longer exists and the subscription
// should be pruned; everything else is transient and the subscription is kept.
type ErrorClass string

const (
	ErrorClassTransient ErrorClass = "transient"
	ErrorClassPermanent ErrorClass = "permanent"
)

// DeliveryResult records one subscription attempt within a user's fan-out.
type DeliveryResult struct {
	SubscriptionID uuid.UUID  `json:"subscriptionId"`
	Success        bool       `json:"success"`
	Class          ErrorClass `json:"errorClass,omitempty"`
}

// DispatchOutcome is the per-user result of one dispatch unit.
type DispatchOutcome struct {
	UserID  uuid.UUID `json:"userId"`
	Email   string    `json:"email"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// RunSummary holds the folded counts of a whole run.
type RunSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// RunReport is the observability contract of a discovery run.
type RunReport struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Summary   RunSummary        `json:"summary"`
	Results   []DispatchOutcome `json:"results"`
	Timestamp time.Time         `json:"timestamp"`
}
