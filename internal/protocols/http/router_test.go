package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangareader/pkg/config"
	"mangareader/pkg/models"
)

const (
	chapterID = "6f1c2a8e-3b7d-4c5e-9a10-2f8b7c6d5e4a"
	userID    = "0d9e8f7a-6b5c-4d3e-8f21-1a2b3c4d5e6f"
)

type stubAuth struct {
	viewers map[string]*models.Viewer
}

func (s *stubAuth) Register(context.Context, models.RegisterRequest) (*models.User, error) {
	return nil, models.ErrEmailExists
}

func (s *stubAuth) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return nil, models.ErrInvalidCredentials
}

func (s *stubAuth) ValidateToken(_ context.Context, token string) (*models.Viewer, error) {
	if v, ok := s.viewers[token]; ok {
		return v, nil
	}
	return nil, models.ErrInvalidToken
}

func (s *stubAuth) Logout(context.Context, *models.Viewer) error { return nil }

func (s *stubAuth) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Role: models.UserRoleUser}, nil
}

func (s *stubAuth) UpdateUserRole(_ context.Context, id, role string) (*models.User, error) {
	return &models.User{ID: id, Role: models.UserRole(role)}, nil
}

type stubPaywall struct {
	unlockErr error
	lastView  *models.Viewer
	calls     int
}

func (s *stubPaywall) Evaluate(_ context.Context, _ string, viewer *models.Viewer) (*models.PaywallDecision, error) {
	s.calls++
	s.lastView = viewer
	if viewer == nil {
		return &models.PaywallDecision{Locked: true, Price: 5, Reason: models.AccessAuthRequired}, nil
	}
	return &models.PaywallDecision{Locked: true, Price: 5, Reason: models.AccessPaymentRequired}, nil
}

func (s *stubPaywall) EvaluateChapter(context.Context, *models.Chapter, *models.Viewer) (models.PaywallDecision, error) {
	return models.PaywallDecision{}, nil
}

func (s *stubPaywall) Unlock(_ context.Context, viewer *models.Viewer, chapterID string) (*models.UnlockResult, error) {
	s.calls++
	if s.unlockErr != nil {
		return nil, s.unlockErr
	}
	return &models.UnlockResult{Status: models.UnlockGranted, ChapterID: chapterID, PricePaid: 5, Balance: 1}, nil
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
	Data    json.RawMessage        `json:"data"`
}

func newTestServer(t *testing.T, paywall *stubPaywall) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.RateLimit.AuthPerMinute = 5
	cfg.RateLimit.UnlockPerSecond = 10

	auth := &stubAuth{viewers: map[string]*models.Viewer{
		"reader-token": {UserID: "u1", Role: models.UserRoleUser},
		"admin-token":  {UserID: "a1", Role: models.UserRoleAdmin},
	}}
	return NewServer(cfg, Services{Auth: auth, Paywall: paywall})
}

func do(t *testing.T, s *Server, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestUnlock_RequiresToken(t *testing.T) {
	s := newTestServer(t, &stubPaywall{})

	w, env := do(t, s, http.MethodPost, "/api/v1/chapters/"+chapterID+"/unlock", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, models.ErrCodeUnauthorized, env.Code)
	assert.Equal(t, "/auth", env.Details["redirect"])

	w, _ = do(t, s, http.MethodPost, "/api/v1/chapters/"+chapterID+"/unlock", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnlock_InsufficientFundsIs402(t *testing.T) {
	s := newTestServer(t, &stubPaywall{unlockErr: models.ErrInsufficientFunds})

	w, env := do(t, s, http.MethodPost, "/api/v1/chapters/"+chapterID+"/unlock", "reader-token", "")
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, models.ErrCodeInsufficientFunds, env.Code)
}

func TestUnlock_Success(t *testing.T) {
	s := newTestServer(t, &stubPaywall{})

	w, env := do(t, s, http.MethodPost, "/api/v1/chapters/"+chapterID+"/unlock", "reader-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var res models.UnlockResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.UnlockGranted, res.Status)
	assert.Equal(t, 1, res.Balance)
}

func TestUnlock_StoreFailureIsGeneric500(t *testing.T) {
	s := newTestServer(t, &stubPaywall{unlockErr: models.ErrWriteFailure})

	w, env := do(t, s, http.MethodPost, "/api/v1/chapters/"+chapterID+"/unlock", "reader-token", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, env.Error, "store")
}

func TestPaywall_OptionalAuth(t *testing.T) {
	paywall := &stubPaywall{}
	s := newTestServer(t, paywall)

	w, _ := do(t, s, http.MethodGet, "/api/v1/chapters/"+chapterID+"/paywall", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, paywall.lastView)

	// a bad token on an optional route is treated as anonymous
	w, _ = do(t, s, http.MethodGet, "/api/v1/chapters/"+chapterID+"/paywall", "forged", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, paywall.lastView)

	w, _ = do(t, s, http.MethodGet, "/api/v1/chapters/"+chapterID+"/paywall", "reader-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, paywall.lastView)
	assert.Equal(t, "u1", paywall.lastView.UserID)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t, &stubPaywall{})

	w, _ := do(t, s, http.MethodPut, "/api/v1/admin/users/"+userID+"/role", "reader-token", `{"role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := do(t, s, http.MethodPut, "/api/v1/admin/users/"+userID+"/role", "admin-token", `{"role":"admin"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, _ = do(t, s, http.MethodPut, "/api/v1/admin/users/"+userID+"/role", "admin-token", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthEndpointsRateLimited(t *testing.T) {
	s := newTestServer(t, &stubPaywall{})
	body := `{"email":"a@example.com","password":"password123"}`

	for i := 0; i < 5; i++ {
		w, _ := do(t, s, http.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, env := do(t, s, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, models.ErrCodeRateLimited, env.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubPaywall{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestKeyedLimiter(t *testing.T) {
	l := newKeyedLimiter(0, 2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestMalformedIDIsNotFound(t *testing.T) {
	paywall := &stubPaywall{}
	s := newTestServer(t, paywall)

	w, env := do(t, s, http.MethodGet, "/api/v1/chapters/not-a-uuid/paywall", "reader-token", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrChapterNotFound.Error(), env.Error)

	w, env = do(t, s, http.MethodPost, "/api/v1/chapters/1%27%20or%201=1/unlock", "reader-token", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrCodeNotFound, env.Code)

	w, env = do(t, s, http.MethodPut, "/api/v1/admin/users/u1/role", "admin-token", `{"role":"admin"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrUserNotFound.Error(), env.Error)

	assert.Zero(t, paywall.calls)
}

func TestUnlock_ClientGoneIsNotServerError(t *testing.T) {
	s := newTestServer(t, &stubPaywall{unlockErr: fmt.Errorf("unlock: %w: %w", models.ErrWriteFailure, context.Canceled)})

	w, _ := do(t, s, http.MethodPost, "/api/v1/chapters/"+chapterID+"/unlock", "reader-token", "")
	assert.Equal(t, statusClientClosedRequest, w.Code)
}

func TestUnlock_DeadlineIsGatewayTimeout(t *testing.T) {
	s := newTestServer(t, &stubPaywall{unlockErr: fmt.Errorf("unlock: %w: %w", models.ErrWriteFailure, context.DeadlineExceeded)})

	w, env := do(t, s, http.MethodPost, "/api/v1/chapters/"+chapterID+"/unlock", "reader-token", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, models.ErrCodeServiceUnavailable, env.Code)
	assert.NotContains(t, env.Error, "deadline")
}
