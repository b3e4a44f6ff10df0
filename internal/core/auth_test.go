package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangareader/pkg/models"
)

const testSecret = "test-secret"

func newTestAuth() (AuthService, *fakeUserRepo, *fakeSessionRepo, EventHub) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	hub := NewEventHub()
	return NewAuthService(users, sessions, hub, testSecret, "mangareader", time.Hour), users, sessions, hub
}

func TestAuth_RegisterLoginValidate(t *testing.T) {
	auth, users, _, _ := newTestAuth()
	ctx := context.Background()

	user, err := auth.Register(ctx, models.RegisterRequest{Email: " Reader@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, "reader", user.DisplayName)
	assert.Empty(t, user.PasswordHash)

	_, err = auth.Register(ctx, models.RegisterRequest{Email: "reader@example.com", Password: "password123"})
	assert.ErrorIs(t, err, models.ErrEmailExists)

	_, err = auth.Register(ctx, models.RegisterRequest{Email: "bad", Password: "password123"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = auth.Login(ctx, models.LoginRequest{Email: "reader@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = auth.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	resp, err := auth.Login(ctx, models.LoginRequest{Email: "READER@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Greater(t, resp.ExpiresIn, 0)
	assert.NotNil(t, users.users[user.ID].LastLoginAt)

	viewer, err := auth.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, viewer.UserID)
	assert.False(t, viewer.IsAdmin())
	assert.NotEmpty(t, viewer.TokenID)
}

func TestAuth_RoleChangeAppliesToExistingToken(t *testing.T) {
	auth, _, _, _ := newTestAuth()
	ctx := context.Background()

	user, err := auth.Register(ctx, models.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	resp, err := auth.Login(ctx, models.LoginRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = auth.UpdateUserRole(ctx, user.ID, "superuser")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = auth.UpdateUserRole(ctx, user.ID, string(models.UserRoleAdmin))
	require.NoError(t, err)

	viewer, err := auth.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.True(t, viewer.IsAdmin())
}

func TestAuth_LogoutRevokesToken(t *testing.T) {
	auth, _, sessions, hub := newTestAuth()
	ctx := context.Background()

	user, err := auth.Register(ctx, models.RegisterRequest{Email: "b@example.com", Password: "password123"})
	require.NoError(t, err)
	resp, err := auth.Login(ctx, models.LoginRequest{Email: "b@example.com", Password: "password123"})
	require.NoError(t, err)
	viewer, err := auth.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)

	events, cancel := hub.Subscribe(user.ID)
	defer cancel()

	require.NoError(t, auth.Logout(ctx, viewer))
	assert.Contains(t, sessions.revoked, viewer.TokenID)
	ev := <-events
	assert.Equal(t, models.EventSessionRevoked, ev.Type)
	assert.Equal(t, viewer.TokenID, ev.Data[models.EventDataTokenID])

	_, err = auth.ValidateToken(ctx, resp.Token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	assert.ErrorIs(t, auth.Logout(ctx, nil), models.ErrNotAuthenticated)
}

func TestAuth_RejectsForeignTokens(t *testing.T) {
	auth, _, _, _ := newTestAuth()
	other := NewAuthService(newFakeUserRepo(), newFakeSessionRepo(), NewEventHub(), "other-secret", "mangareader", time.Hour)
	ctx := context.Background()

	_, err := other.Register(ctx, models.RegisterRequest{Email: "c@example.com", Password: "password123"})
	require.NoError(t, err)
	resp, err := other.Login(ctx, models.LoginRequest{Email: "c@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = auth.ValidateToken(ctx, resp.Token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	_, err = auth.ValidateToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestWallet_GrantRequiresAdmin(t *testing.T) {
	repo := newFakeWalletRepo()
	repo.balances["u1"] = 0
	hub := NewEventHub()
	svc := NewWalletService(repo, hub)
	ctx := context.Background()
	admin := &models.Viewer{UserID: "admin", Role: models.UserRoleAdmin}

	_, err := svc.Grant(ctx, reader("u2"), "u1", 10)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Grant(ctx, nil, "u1", 10)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	_, err = svc.Grant(ctx, admin, "u1", 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.Grant(ctx, admin, "ghost", 5)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	events, cancel := hub.Subscribe("u1")
	defer cancel()

	wallet, err := svc.Grant(ctx, admin, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, wallet.Balance)
	ev := <-events
	assert.Equal(t, models.EventBalanceChanged, ev.Type)
	assert.Equal(t, 10, ev.Data["balance"])

	txs, err := svc.Transactions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.CoinReasonGrant, txs[0].Reason)
}
