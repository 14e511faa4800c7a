package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/internal/push"
	"github.com/plantona/plantona-api/pkg/logger"
)

type fakeSubscriptionService struct {
	subs    []model.PushSubscription
	listErr error

	removed []string
}

func (f *fakeSubscriptionService) Register(ctx context.Context, userID uuid.UUID, endpoint string, keys model.SubscriptionKeys) error {
	return nil
}

func (f *fakeSubscriptionService) Unregister(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (f *fakeSubscriptionService) RemoveEndpoint(ctx context.Context, endpoint string) error {
	f.removed = append(f.removed, endpoint)

	var kept []model.PushSubscription
	for _, s := range f.subs {
		if s.Endpoint != endpoint {
			kept = append(kept, s)
		}
	}
	f.subs = kept
	return nil
}

func (f *fakeSubscriptionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error) {
	return f.subs, f.listErr
}

// fakeSender scripts one result per endpoint.
type fakeSender struct {
	results map[string]error
	sent    []string
}

func (f *fakeSender) Send(ctx context.Context, sub model.PushSubscription, payload push.Payload) error {
	f.sent = append(f.sent, sub.Endpoint)
	return f.results[sub.Endpoint]
}

func sub(endpoint string) model.PushSubscription {
	return model.PushSubscription{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Endpoint: endpoint,
		P256dh:   "p256dh-key",
		Auth:     "auth-key",
	}
}

func eligible() model.EligibleUser {
	return model.EligibleUser{
		UserID:      uuid.New(),
		Email:       "user@example.com",
		PushEnabled: true,
	}
}

func TestDeliverTo_NoSubscriptions(t *testing.T) {
	subs := &fakeSubscriptionService{}
	sender := &fakeSender{}
	svc := NewService(subs, sender, logger.Nop(), nil)

	outcome := svc.DeliverTo(context.Background(), eligible())

	assert.False(t, outcome.Success)
	assert.Equal(t, ErrNoSubscriptions, outcome.Error)
	assert.Empty(t, sender.sent)
	assert.Empty(t, subs.removed)
}

func TestDeliverTo_AtLeastOneDeviceSucceeds(t *testing.T) {
	a, b, c := sub("https://push/a"), sub("https://push/b"), sub("https://push/c")
	subs := &fakeSubscriptionService{subs: []model.PushSubscription{a, b, c}}
	sender := &fakeSender{results: map[string]error{
		a.Endpoint: nil,
		b.Endpoint: &push.EndpointGoneError{StatusCode: 410},
		c.Endpoint: errors.New("push service unavailable"),
	}}
	svc := NewService(subs, sender, logger.Nop(), nil)

	outcome := svc.DeliverTo(context.Background(), eligible())

	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Error)

	// Every subscription was attempted despite B and C failing.
	assert.Len(t, sender.sent, 3)

	// The gone endpoint was pruned, the transiently failing one retained.
	assert.Equal(t, []string{b.Endpoint}, subs.removed)
	require.Len(t, subs.subs, 2)
	assert.Equal(t, a.Endpoint, subs.subs[0].Endpoint)
	assert.Equal(t, c.Endpoint, subs.subs[1].Endpoint)
}

func TestDeliverTo_AllPermanentFailures(t *testing.T) {
	a, b := sub("https://push/a"), sub("https://push/b")
	subs := &fakeSubscriptionService{subs: []model.PushSubscription{a, b}}
	sender := &fakeSender{results: map[string]error{
		a.Endpoint: &push.EndpointGoneError{StatusCode: 404},
		b.Endpoint: &push.EndpointGoneError{StatusCode: 410},
	}}
	svc := NewService(subs, sender, logger.Nop(), nil)

	outcome := svc.DeliverTo(context.Background(), eligible())

	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Error)
	assert.ElementsMatch(t, []string{a.Endpoint, b.Endpoint}, subs.removed)
	assert.Empty(t, subs.subs)
}

func TestDeliverTo_TransientFailureRetainsSubscription(t *testing.T) {
	a := sub("https://push/a")
	subs := &fakeSubscriptionService{subs: []model.PushSubscription{a}}
	sender := &fakeSender{results: map[string]error{
		a.Endpoint: errors.New("timeout"),
	}}
	svc := NewService(subs, sender, logger.Nop(), nil)

	outcome := svc.DeliverTo(context.Background(), eligible())

	assert.False(t, outcome.Success)
	assert.Empty(t, subs.removed)
	assert.Len(t, subs.subs, 1)
}

func TestDeliverTo_StoreErrorIsUserFailure(t *testing.T) {
	subs := &fakeSubscriptionService{listErr: errors.New("db down")}
	svc := NewService(subs, &fakeSender{}, logger.Nop(), nil)

	outcome := svc.DeliverTo(context.Background(), eligible())

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "failed to load subscriptions")
}
