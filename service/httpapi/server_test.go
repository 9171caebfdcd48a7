package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/viant/moderation"
	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/approval"
	"github.com/viant/moderation/service/dao/repository"
	"github.com/viant/moderation/service/httpapi"
	"github.com/viant/moderation/service/notification"
)

type testServer struct {
	handler http.Handler
	repo    *repository.Repository
	clock   *clock.Manual
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	config := moderation.DefaultConfig()
	config.Verification.HashCost = bcrypt.MinCost
	config.Verification.ExemptKinds = []model.ActionKind{model.KindStatusChange}
	ts := &testServer{
		repo:  repository.Memory(),
		clock: clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	}
	srv, err := moderation.New(context.Background(),
		moderation.WithConfig(config),
		moderation.WithRepository(ts.repo),
		moderation.WithClock(ts.clock),
		moderation.WithDispatcher(&notification.Recorder{}),
		moderation.WithCodeGenerator(func(int) (string, error) { return "123456", nil }),
	)
	require.NoError(t, err)
	server := httpapi.New(httpapi.DefaultConfig(), srv,
		httpapi.WithIdentity(srv.Identity()),
		httpapi.WithMetricsHandler(srv.Metrics().Handler()))
	ts.handler = server.Handler()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestServer_VerifiedSubmissionFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/actions", map[string]interface{}{
		"kind":      "content_update",
		"payload":   map[string]string{"title": "Water outage"},
		"requester": map[string]string{"name": "A", "email": "a@example.com"},
	}, httpapi.DeviceHeader, "dev-1")
	require.Equal(t, http.StatusAccepted, w.Code)
	submitted := decode[httpapi.SubmitResponse](t, w)
	require.NotEmpty(t, submitted.ChallengeID)

	w = ts.do(t, http.MethodPost, "/challenges/"+submitted.ChallengeID+"/verify", map[string]string{"code": "000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, model.CodeInvalidCode, decode[httpapi.ErrorResponse](t, w).Code)

	w = ts.do(t, http.MethodPost, "/challenges/"+submitted.ChallengeID+"/verify", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusCreated, w.Code)
	queued := decode[httpapi.SubmitResponse](t, w)
	require.NotNil(t, queued.Item)

	w = ts.do(t, http.MethodPost, "/challenges/"+submitted.ChallengeID+"/verify", map[string]string{"code": "123456"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/moderation/pending?kind=content_update", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]*model.Item](t, w), 1)

	w = ts.do(t, http.MethodPost, "/moderation/items/"+queued.Item.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decision := decode[approval.Decision](t, w)
	assert.True(t, decision.Approved)

	w = ts.do(t, http.MethodPost, "/moderation/items/"+queued.Item.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/identity/dev-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", decode[model.Requester](t, w).Email)
}

func TestServer_ExemptKindIsQueuedDirectly(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/actions", map[string]interface{}{
		"kind":    "status_change",
		"payload": map[string]string{"contentId": "c1", "status": "resolved"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	response := decode[httpapi.SubmitResponse](t, w)
	require.NotNil(t, response.Item)

	w = ts.do(t, http.MethodPost, "/moderation/items/"+response.Item.ID+"/deny", map[string]string{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/moderation/items/"+response.Item.ID+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/moderation/items/"+response.Item.ID+"/deny", map[string]string{"reason": "no such content"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/moderation/items?status=denied", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]*model.Item](t, w), 1)
}

func TestServer_Errors(t *testing.T) {
	ts := newTestServer(t)
	testCases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "unknown kind", method: http.MethodPost, path: "/actions", body: map[string]interface{}{"kind": "promote", "payload": map[string]string{}}, status: http.StatusBadRequest},
		{name: "blank title", method: http.MethodPost, path: "/actions", body: map[string]interface{}{"kind": "content_update", "payload": map[string]string{"title": " "}}, status: http.StatusBadRequest},
		{name: "unknown challenge", method: http.MethodPost, path: "/challenges/nope/verify", body: map[string]string{"code": "123456"}, status: http.StatusNotFound},
		{name: "unknown item", method: http.MethodGet, path: "/moderation/items/nope", status: http.StatusNotFound},
		{name: "bad status filter", method: http.MethodGet, path: "/moderation/items?status=lost", status: http.StatusBadRequest},
		{name: "unknown device", method: http.MethodGet, path: "/identity/none", status: http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, decode[httpapi.ErrorResponse](t, w).Message)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/actions", map[string]interface{}{
		"kind":    "status_change",
		"payload": map[string]string{"contentId": "c1", "status": "resolved"},
	})
	w := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "moderation_")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusGone, httpapi.StatusOf(model.CodeExpiredCode))
	assert.Equal(t, http.StatusTooManyRequests, httpapi.StatusOf(model.CodeTooManyAttempts))
	assert.Equal(t, http.StatusInternalServerError, httpapi.StatusOf(model.CodePersistence))
}
