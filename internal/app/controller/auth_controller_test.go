package controller

import (
	"net/http"
	"testing"

	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_LoginMergesGuestCart(t *testing.T) {
	f := setupGatewayTest(t)
	f.srv.QueueSessionIDs("guest-42")
	cookie := f.newVisitor(t)

	w := f.do(http.MethodPost, "/cart/items", gin.H{"product_id": 8, "quantity": 1}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/login", gin.H{"email": f.customer.Email, "password": testPassword}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, f.customer.Email, user["email"])
	cart := body["cart"].(map[string]interface{})
	assert.Equal(t, "user", cart["identity"].(map[string]interface{})["kind"])

	assert.Equal(t, map[uint]int{8: 1}, f.srv.UserCart(f.customer.ID))
	assert.Empty(t, f.srv.GuestCart("guest-42"))
	require.Len(t, f.srv.RequestsTo(http.MethodPost, "/v2/cart/merge"), 1)
}

func TestAuthController_LoginErrors(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)

	t.Run("wrong password", func(t *testing.T) {
		w := f.do(http.MethodPost, "/login", gin.H{"email": f.customer.Email, "password": "nope-nope"}, cookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decode(t, w)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", body["error"])
		assert.Equal(t, "Invalid credentials", body["message"])
	})

	t.Run("malformed email", func(t *testing.T) {
		w := f.do(http.MethodPost, "/login", gin.H{"email": "player", "password": testPassword}, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		fields := decode(t, w)["fields"].(map[string]interface{})
		assert.Equal(t, "Invalid email format", fields["email"])
	})

	t.Run("not json", func(t *testing.T) {
		w := f.do(http.MethodPost, "/login", "email=player", cookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthController_SessionLifecycle(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)

	w := f.do(http.MethodGet, "/session", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["authenticated"])

	f.login(t, cookie, f.customer.Email)

	w = f.do(http.MethodGet, "/session", nil, cookie)
	body := decode(t, w)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "Player One", body["user"].(map[string]interface{})["name"])

	// guest only pages send signed in visitors home
	w = f.do(http.MethodGet, "/login", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = f.do(http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/session", nil, cookie)
	assert.Equal(t, false, decode(t, w)["authenticated"])
	assert.Equal(t, service.IdentityGuest, f.storefront(t, cookie).Cart.Snapshot().Identity.Kind)
}

func TestAuthController_LogoutWhenServerUnreachable(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)
	f.login(t, cookie, f.customer.Email)
	f.srv.Drop("POST /logout")

	w := f.do(http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.storefront(t, cookie).Auth.IsAuthenticated())
}

func TestAuthController_Register(t *testing.T) {
	f := setupGatewayTest(t)

	t.Run("creates and signs in", func(t *testing.T) {
		cookie := f.newVisitor(t)
		w := f.do(http.MethodPost, "/register", gin.H{
			"name":                  "New Player",
			"email":                 "new@example.com",
			"password":              testPassword,
			"password_confirmation": testPassword,
		}, cookie)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.True(t, f.storefront(t, cookie).Auth.IsAuthenticated())
	})

	t.Run("email taken", func(t *testing.T) {
		w := f.do(http.MethodPost, "/register", gin.H{
			"name":                  "Copy",
			"email":                 f.customer.Email,
			"password":              testPassword,
			"password_confirmation": testPassword,
		}, f.newVisitor(t))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "The email has already been taken.", decode(t, w)["message"])
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		w := f.do(http.MethodPost, "/register", gin.H{
			"name":                  "Typo",
			"email":                 "typo@example.com",
			"password":              testPassword,
			"password_confirmation": "password124",
		}, f.newVisitor(t))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decode(t, w)["fields"], "password_confirmation")
	})
}

func TestAuthController_Unauthorized(t *testing.T) {
	f := setupGatewayTest(t)

	w := f.do(http.MethodGet, "/unauthorized", nil, f.newVisitor(t))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_FORBIDDEN", decode(t, w)["error"])
}
