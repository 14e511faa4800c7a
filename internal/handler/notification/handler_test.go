package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantona/plantona-api/internal/middleware"
	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/pkg/logger"
)

type fakeDiscoverer struct {
	users []model.EligibleUser
	err   error
	calls int
}

func (f *fakeDiscoverer) DiscoverDueUsers(ctx context.Context, now time.Time) ([]model.EligibleUser, error) {
	f.calls++
	return f.users, f.err
}

type fakeDispatcher struct {
	report model.RunReport
	calls  int
}

func (f *fakeDispatcher) DispatchAll(ctx context.Context, users []model.EligibleUser) model.RunReport {
	f.calls++
	return f.report
}

func (f *fakeDispatcher) DispatchOne(ctx context.Context, user model.EligibleUser) model.DispatchOutcome {
	return model.DispatchOutcome{UserID: user.UserID, Email: user.Email, Success: true}
}

func setupRouter(secret string, disc *fakeDiscoverer, disp *fakeDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(disc, disp, logger.Nop())
	h.RegisterRoutes(r.Group("/api/v1", middleware.CronAuth(secret)))
	return r
}

func trigger(r *gin.Engine, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/run", nil)
	if secret != "" {
		req.Header.Set(middleware.HeaderCronSecret, secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRun_ReportShape(t *testing.T) {
	userID := uuid.New()
	disc := &fakeDiscoverer{users: []model.EligibleUser{{UserID: userID, Email: "a@example.com"}}}
	disp := &fakeDispatcher{report: model.RunReport{
		Success: true,
		Message: "notified 1 of 2 due users",
		Summary: model.RunSummary{Total: 2, Successful: 1, Failed: 1},
		Results: []model.DispatchOutcome{
			{UserID: userID, Email: "a@example.com", Success: true},
			{UserID: uuid.New(), Email: "b@example.com", Error: "No subscriptions available"},
		},
		Timestamp: time.Now().UTC(),
	}}

	r := setupRouter("s3cret", disc, disp)
	w := trigger(r, "s3cret")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Summary struct {
			Total      int `json:"total"`
			Successful int `json:"successful"`
			Failed     int `json:"failed"`
		} `json:"summary"`
		Results []struct {
			UserID  string `json:"userId"`
			Email   string `json:"email"`
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"results"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Summary.Total)
	assert.Equal(t, 1, body.Summary.Successful)
	assert.Equal(t, 1, body.Summary.Failed)
	require.Len(t, body.Results, 2)
	assert.Equal(t, userID.String(), body.Results[0].UserID)
	assert.Empty(t, body.Results[0].Error)
	assert.Equal(t, "No subscriptions available", body.Results[1].Error)
	assert.False(t, body.Timestamp.IsZero())
}

func TestRun_UnauthorizedPerformsNoWork(t *testing.T) {
	disc := &fakeDiscoverer{}
	disp := &fakeDispatcher{}
	r := setupRouter("s3cret", disc, disp)

	w := trigger(r, "wrong")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, disc.calls)
	assert.Zero(t, disp.calls)
}

func TestRun_DiscoveryFailureIsRunFatal(t *testing.T) {
	disc := &fakeDiscoverer{err: errors.New("connection refused")}
	disp := &fakeDispatcher{}
	r := setupRouter("s3cret", disc, disp)

	w := trigger(r, "s3cret")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, disp.calls, "no partial dispatch on discovery failure")

	var body model.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "discovery failed")
}

func TestDispatch_SingleUser(t *testing.T) {
	disc := &fakeDiscoverer{}
	disp := &fakeDispatcher{}
	r := setupRouter("s3cret", disc, disp)

	user := model.EligibleUser{
		UserID:      uuid.New(),
		Email:       "a@example.com",
		PushEnabled: true,
		TimeZone:    "UTC",
	}
	payload, err := json.Marshal(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/dispatch", bytes.NewReader(payload))
	req.Header.Set(middleware.HeaderCronSecret, "s3cret")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var outcome model.DispatchOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, user.UserID, outcome.UserID)
	assert.True(t, outcome.Success)
}

func TestLatestRun(t *testing.T) {
	disc := &fakeDiscoverer{}
	disp := &fakeDispatcher{report: model.RunReport{Success: true, Summary: model.RunSummary{Total: 1, Successful: 1}}}
	r := setupRouter("s3cret", disc, disp)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/runs/latest", nil)
		req.Header.Set(middleware.HeaderCronSecret, "s3cret")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNotFound, get().Code)

	trigger(r, "s3cret")

	assert.Equal(t, http.StatusOK, get().Code)
}
