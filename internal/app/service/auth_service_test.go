package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))

		var transitions []bool
		f.sf.Auth.OnIdentityChange(func(_ context.Context, authenticated bool) {
			transitions = append(transitions, authenticated)
		})

		principal, err := f.sf.Auth.Login(ctx, apiCredentials())
		require.NoError(t, err)
		assert.Equal(t, f.user, *principal)
		assert.True(t, f.sf.Auth.IsAuthenticated())
		assert.Equal(t, []bool{true}, transitions)
		assert.Equal(t, 1, f.srv.CSRFFetches())

		token, err := f.state.Get(ctx, model.StateKeyToken)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, token, f.sf.Client.Token())
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))

		_, err := f.sf.Auth.Login(ctx, api.Credentials{Email: testEmail, Password: "not-the-password"})
		require.Error(t, err)
		assert.Equal(t, apperrors.AuthInvalidCredentials, apperrors.Code(err))
		assert.Equal(t, "Invalid credentials", apperrors.Message(err, ""))
		assert.False(t, f.sf.Auth.IsAuthenticated())

		token, err := f.state.Get(ctx, model.StateKeyToken)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("invalid input never reaches the server", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))
		f.srv.ResetRequests()

		_, err := f.sf.Auth.Login(ctx, api.Credentials{Email: "not-an-email"})
		require.Error(t, err)
		assert.Equal(t, apperrors.ValidationInvalidInput, apperrors.Code(err))
		fields := apperrors.Fields(err)
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
		assert.Empty(t, f.srv.Requests())
		assert.Equal(t, 0, f.srv.CSRFFetches())
	})

	t.Run("server failure uses fallback", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))
		f.srv.Fail("POST /login", http.StatusInternalServerError, "")

		_, err := f.sf.Auth.Login(ctx, apiCredentials())
		require.Error(t, err)
		assert.Equal(t, "Login failed", apperrors.Message(err, ""))
	})
}

func TestAuthService_Register(t *testing.T) {
	registration := api.Registration{
		Name:                 "New Player",
		Email:                "new@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}

	t.Run("success", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))

		principal, err := f.sf.Auth.Register(ctx, registration)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", principal.Email)
		assert.Equal(t, model.RoleCustomer, principal.Role)
		assert.True(t, f.sf.Auth.IsAuthenticated())
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))

		dup := registration
		dup.Email = testEmail
		_, err := f.sf.Auth.Register(ctx, dup)
		require.Error(t, err)
		assert.Equal(t, apperrors.ValidationInvalidInput, apperrors.Code(err))
		assert.Equal(t, "The email has already been taken.", apperrors.Message(err, ""))
		assert.False(t, f.sf.Auth.IsAuthenticated())
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))

		bad := registration
		bad.PasswordConfirmation = "something-else"
		_, err := f.sf.Auth.Register(ctx, bad)
		require.Error(t, err)
		assert.Contains(t, apperrors.Fields(err), "password_confirmation")
		assert.Empty(t, f.srv.RequestsTo("POST", "/register"))
	})
}

func TestAuthService_CheckSession(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		f := setupStorefrontTest(t)
		assert.True(t, f.sf.Auth.Loading())

		assert.False(t, f.sf.Auth.CheckSession(context.Background()))
		assert.False(t, f.sf.Auth.Loading())
		assert.Empty(t, f.srv.RequestsTo("GET", "/user"))
	})

	t.Run("valid token", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.state.Set(ctx, model.StateKeyToken, f.srv.IssueToken(testEmail)))

		assert.True(t, f.sf.Auth.CheckSession(ctx))
		assert.Equal(t, f.user.ID, f.sf.Auth.Principal().ID)
	})

	t.Run("rejected token is cleared locally", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.state.Set(ctx, model.StateKeyToken, "revoked-token"))

		assert.False(t, f.sf.Auth.CheckSession(ctx))
		token, err := f.state.Get(ctx, model.StateKeyToken)
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.Empty(t, f.sf.Client.Token())
		assert.Empty(t, f.srv.RequestsTo("POST", "/logout"))
	})

	t.Run("expired token skips the server", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		require.NoError(t, f.state.Set(ctx, model.StateKeyToken, expired))

		assert.False(t, f.sf.Auth.CheckSession(ctx))
		assert.Empty(t, f.srv.Requests())
		token, err := f.state.Get(ctx, model.StateKeyToken)
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestAuthService_WaitReady(t *testing.T) {
	f := setupStorefrontTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.sf.Auth.WaitReady(ctx), context.DeadlineExceeded)

	go f.sf.Auth.CheckSession(context.Background())
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	assert.NoError(t, f.sf.Auth.WaitReady(waitCtx))
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))
		_, err := f.sf.Auth.Login(ctx, apiCredentials())
		require.NoError(t, err)

		f.sf.Auth.Logout(ctx)

		assert.False(t, f.sf.Auth.IsAuthenticated())
		assert.Nil(t, f.sf.Auth.Principal())
		assert.Len(t, f.srv.RequestsTo("POST", "/logout"), 1)
	})

	t.Run("server unreachable", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))
		_, err := f.sf.Auth.Login(ctx, apiCredentials())
		require.NoError(t, err)

		var transitions []bool
		f.sf.Auth.OnIdentityChange(func(_ context.Context, authenticated bool) {
			transitions = append(transitions, authenticated)
		})
		f.srv.Drop("POST /logout")

		f.sf.Auth.Logout(ctx)

		assert.False(t, f.sf.Auth.IsAuthenticated())
		assert.Equal(t, []bool{false}, transitions)
		token, err := f.state.Get(ctx, model.StateKeyToken)
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.Empty(t, f.sf.Client.Token())
	})

	t.Run("anonymous logout does not notify", func(t *testing.T) {
		f := setupStorefrontTest(t)
		ctx := context.Background()
		require.NoError(t, f.sf.Start(ctx))

		notified := false
		f.sf.Auth.OnIdentityChange(func(context.Context, bool) { notified = true })
		f.sf.Auth.Logout(ctx)
		assert.False(t, notified)
	})
}
