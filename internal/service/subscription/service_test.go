package subscription

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/pkg/security"
)

// fakeRepo implements delete-then-insert semantics in memory.
type fakeRepo struct {
	rows []model.PushSubscription
	err  error
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.PushSubscription
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	if f.err != nil {
		return f.err
	}
	var kept []model.PushSubscription
	for _, r := range f.rows {
		if !(r.UserID == sub.UserID && r.Endpoint == sub.Endpoint) {
			kept = append(kept, r)
		}
	}
	sub.ID = uuid.New()
	f.rows = append(kept, *sub)
	return nil
}

func (f *fakeRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	var kept []model.PushSubscription
	for _, r := range f.rows {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	var kept []model.PushSubscription
	for _, r := range f.rows {
		if r.Endpoint != endpoint {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func TestRegister_UpsertReplacesKeys(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)
	userID := uuid.New()

	require.NoError(t, svc.Register(context.Background(), userID, "https://push/e1",
		model.SubscriptionKeys{P256dh: "p1", Auth: "a1"}))
	require.NoError(t, svc.Register(context.Background(), userID, "https://push/e1",
		model.SubscriptionKeys{P256dh: "p2", Auth: "a2"}))

	subs, err := svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "p2", subs[0].P256dh)
	assert.Equal(t, "a2", subs[0].Auth)
}

func TestRegister_RejectsIncompletePayload(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)
	userID := uuid.New()

	assert.Error(t, svc.Register(context.Background(), userID, "", model.SubscriptionKeys{P256dh: "p", Auth: "a"}))
	assert.Error(t, svc.Register(context.Background(), userID, "https://push/e", model.SubscriptionKeys{Auth: "a"}))
	assert.Error(t, svc.Register(context.Background(), userID, "https://push/e", model.SubscriptionKeys{P256dh: "p"}))
}

func TestRegister_EncryptsAuthAtRest(t *testing.T) {
	enc, err := security.NewEncryptorFromPassphrase("test-passphrase")
	require.NoError(t, err)

	repo := &fakeRepo{}
	svc := NewService(repo, enc)
	userID := uuid.New()

	require.NoError(t, svc.Register(context.Background(), userID, "https://push/e1",
		model.SubscriptionKeys{P256dh: "p1", Auth: "secret-auth"}))

	// Stored form differs from the plaintext.
	require.Len(t, repo.rows, 1)
	assert.NotEqual(t, "secret-auth", repo.rows[0].Auth)

	// Reads hand back usable key material.
	subs, err := svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "secret-auth", subs[0].Auth)
}

func TestListForUser_LegacyPlaintextRowsSurvive(t *testing.T) {
	enc, err := security.NewEncryptorFromPassphrase("test-passphrase")
	require.NoError(t, err)

	userID := uuid.New()
	repo := &fakeRepo{rows: []model.PushSubscription{{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: "https://push/old",
		P256dh:   "p",
		Auth:     "plain-auth",
	}}}
	svc := NewService(repo, enc)

	subs, err := svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "plain-auth", subs[0].Auth)
}

func TestUnregister_RemovesEverything(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)
	userID := uuid.New()

	require.NoError(t, svc.Register(context.Background(), userID, "https://push/e1",
		model.SubscriptionKeys{P256dh: "p", Auth: "a"}))
	require.NoError(t, svc.Register(context.Background(), userID, "https://push/e2",
		model.SubscriptionKeys{P256dh: "p", Auth: "a"}))

	require.NoError(t, svc.Unregister(context.Background(), userID))

	subs, err := svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	// Opt-out with nothing registered is still fine.
	assert.NoError(t, svc.Unregister(context.Background(), userID))
}

func TestRemoveEndpoint_MissingRowIsNoOp(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	assert.NoError(t, svc.RemoveEndpoint(context.Background(), "https://push/never-seen"))
	assert.Empty(t, repo.rows)
}
