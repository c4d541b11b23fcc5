package controller

import (
	"net/http"

	"github.com/gamexpress/storefront/internal/api"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/gamexpress/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SessionNotifier is told when a visitor signs in or out so other open tabs
// can follow.
type SessionNotifier interface {
	SendToVisitor(visitorID string, message interface{}) error
}

type AuthController struct {
	notifier SessionNotifier
}

func NewAuthController(notifier SessionNotifier) *AuthController {
	return &AuthController{notifier: notifier}
}

type sessionEvent struct {
	Type          string `json:"type"`
	Authenticated bool   `json:"authenticated"`
}

func (ctrl *AuthController) notify(c *gin.Context, authenticated bool) {
	if ctrl.notifier == nil {
		return
	}
	visitorID, ok := middleware.GetVisitorID(c)
	if !ok {
		return
	}
	_ = ctrl.notifier.SendToVisitor(visitorID, sessionEvent{Type: "session", Authenticated: authenticated})
}

// LoginPage describes the login form
// GET /login
func (ctrl *AuthController) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":   "login",
		"fields": []string{"email", "password"},
	})
}

// RegisterPage describes the registration form
// GET /register
func (ctrl *AuthController) RegisterPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":   "register",
		"fields": []string{"name", "email", "password", "password_confirmation"},
	})
}

// Login signs the visitor in and merges the guest cart
// POST /login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	var req api.Credentials
	if !bindJSON(c, &req) {
		return
	}

	user, err := sf.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	log.Info("Visitor signed in", map[string]interface{}{
		"user_id": user.ID,
	})
	ctrl.notify(c, true)

	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"cart": sf.Cart.Snapshot(),
	})
}

// Register creates an account and signs the visitor in
// POST /register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	var req api.Registration
	if !bindJSON(c, &req) {
		return
	}

	user, err := sf.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Register failed")
		return
	}

	log.Info("Visitor registered", map[string]interface{}{
		"user_id": user.ID,
	})
	ctrl.notify(c, true)

	c.JSON(http.StatusCreated, gin.H{
		"user": user,
		"cart": sf.Cart.Snapshot(),
	})
}

// Logout signs the visitor out; the local session is cleared even when the
// server can not be reached
// POST /logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	wasAuthenticated := sf.Auth.IsAuthenticated()

	sf.Auth.Logout(c.Request.Context())
	if wasAuthenticated {
		ctrl.notify(c, false)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// Session reports the visitor's authentication state
// GET /session
func (ctrl *AuthController) Session(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	if err := sf.Auth.WaitReady(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"loading": true, "authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"loading":       false,
		"authenticated": sf.Auth.IsAuthenticated(),
		"user":          sf.Auth.Principal(),
	})
}

// Unauthorized is where role guards send visitors
// GET /unauthorized
func (ctrl *AuthController) Unauthorized(c *gin.Context) {
	apperrors.Forbidden(c, "")
}
