// Package push is the outbound transport boundary. The pipeline only needs a
// capability that takes a subscription descriptor plus a payload and reports
// success or a classified failure; everything protocol-level lives behind
// Sender.
package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantona/plantona-api/internal/model"
)

// Payload is the fixed reminder notification body.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon"`
	Data  map[string]string `json:"data,omitempty"`
}

// ReminderPayload builds the care-reminder payload sent to every device.
func ReminderPayload() Payload {
	return Payload{
		Title: "Plantona",
		Body:  "Time to check on your plants!",
		Icon:  "/icons/icon-192.png",
		Data:  map[string]string{"url": "/plants"},
	}
}

// Sender delivers a payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub model.PushSubscription, payload Payload) error
}

// EndpointGoneError reports that the push service says the endpoint no longer
// exists. Deliveries failing with it are classified permanent and the
// subscription is pruned.
type EndpointGoneError struct {
	StatusCode int
}

func (e *EndpointGoneError) Error() string {
	return fmt.Sprintf("push endpoint gone (status %d)", e.StatusCode)
}

// Classify maps a delivery error to the two-tier failure taxonomy.
func Classify(err error) model.ErrorClass {
	var gone *EndpointGoneError
	if errors.As(err, &gone) {
		return model.ErrorClassPermanent
	}
	return model.ErrorClassTransient
}
