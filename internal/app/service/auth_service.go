package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

const (
	fallbackLogin    = "Login failed"
	fallbackRegister = "Register failed"
)

// IdentityListener is told about every authenticated/unauthenticated
// transition, synchronously and in registration order.
type IdentityListener func(ctx context.Context, authenticated bool)

// AuthAPI is the part of the API client the auth manager talks to.
type AuthAPI interface {
	FetchCSRFCookie(ctx context.Context) error
	Login(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error)
	Register(ctx context.Context, reg api.Registration) (*api.AuthResponse, error)
	CurrentUser(ctx context.Context) (*model.Principal, error)
	Logout(ctx context.Context) error
	SetToken(token string)
}

type AuthService interface {
	Login(ctx context.Context, creds api.Credentials) (*model.Principal, error)
	Register(ctx context.Context, reg api.Registration) (*model.Principal, error)
	CheckSession(ctx context.Context) bool
	Logout(ctx context.Context)
	IsAuthenticated() bool
	Principal() *model.Principal
	Loading() bool
	WaitReady(ctx context.Context) error
	OnIdentityChange(listener IdentityListener)
}

type authService struct {
	api      AuthAPI
	state    StateStore
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time

	// serializes login, register, logout and the session check
	opMu sync.Mutex

	mu            sync.RWMutex
	authenticated bool
	principal     *model.Principal
	listeners     []IdentityListener

	ready     chan struct{}
	readyOnce sync.Once
}

func NewAuthService(authAPI AuthAPI, state StateStore, log *logger.Logger) AuthService {
	if log == nil {
		log = logger.Get()
	}
	return &authService{
		api:      authAPI,
		state:    state,
		validate: newValidator(),
		log:      log,
		now:      time.Now,
		ready:    make(chan struct{}),
	}
}

func (s *authService) OnIdentityChange(listener IdentityListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *authService) Login(ctx context.Context, creds api.Credentials) (*model.Principal, error) {
	if err := s.validate.Struct(creds); err != nil {
		s.log.Warn("Login rejected: invalid credentials format", logger.Fields{
			"email": creds.Email,
		})
		return nil, apperrors.FromValidation(err)
	}

	// an explicit login settles the session even when no check ran
	defer s.markReady()
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.log.Info("Attempting login", logger.Fields{
		"email": creds.Email,
	})

	if err := s.api.FetchCSRFCookie(ctx); err != nil {
		s.log.Error("CSRF preflight failed", err)
		return nil, apperrors.FromAPI(err, fallbackLogin)
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.log.Warn("Login failed", logger.Fields{
			"email": creds.Email,
			"error": err.Error(),
		})
		return nil, credentialError(err, fallbackLogin)
	}

	s.establish(ctx, resp)

	s.log.Info("User logged in successfully", logger.Fields{
		"user_id": resp.User.ID,
		"role":    resp.User.Role,
	})
	return s.Principal(), nil
}

func (s *authService) Register(ctx context.Context, reg api.Registration) (*model.Principal, error) {
	if err := s.validate.Struct(reg); err != nil {
		s.log.Warn("Registration rejected: invalid input", logger.Fields{
			"email": reg.Email,
		})
		return nil, apperrors.FromValidation(err)
	}

	defer s.markReady()
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.log.Info("Attempting registration", logger.Fields{
		"email": reg.Email,
		"name":  reg.Name,
	})

	if err := s.api.FetchCSRFCookie(ctx); err != nil {
		s.log.Error("CSRF preflight failed", err)
		return nil, apperrors.FromAPI(err, fallbackRegister)
	}

	resp, err := s.api.Register(ctx, reg)
	if err != nil {
		s.log.Warn("Registration failed", logger.Fields{
			"email": reg.Email,
			"error": err.Error(),
		})
		return nil, apperrors.FromAPI(err, fallbackRegister)
	}

	s.establish(ctx, resp)

	s.log.Info("User registered successfully", logger.Fields{
		"user_id": resp.User.ID,
	})
	return s.Principal(), nil
}

// establish stores the token and flips to authenticated. Callers hold opMu.
func (s *authService) establish(ctx context.Context, resp *api.AuthResponse) {
	if err := s.state.Set(ctx, model.StateKeyToken, resp.Token); err != nil {
		s.log.Error("Failed to persist auth token, session will not survive a restart", err)
	}
	s.api.SetToken(resp.Token)

	principal := *resp.User
	s.transition(ctx, true, &principal)
}

func (s *authService) CheckSession(ctx context.Context) bool {
	defer s.markReady()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	token, err := s.state.Get(ctx, model.StateKeyToken)
	if err != nil {
		s.log.Error("Failed to read stored token", err)
		return false
	}
	if token == "" {
		s.log.Debug("No stored token, session is anonymous")
		return false
	}

	if s.tokenExpired(token) {
		s.log.Info("Stored token expired, clearing session")
		s.clearLocal(ctx)
		return false
	}

	s.api.SetToken(token)
	principal, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.log.Warn("Stored token rejected, clearing session", logger.Fields{
			"code":  apperrors.AuthTokenInvalid,
			"error": err.Error(),
		})
		s.clearLocal(ctx)
		return false
	}

	s.transition(ctx, true, principal)
	s.log.Info("Session restored", logger.Fields{
		"user_id": principal.ID,
	})
	return true
}

// tokenExpired checks the exp claim of JWT shaped tokens locally. Opaque
// tokens are left to the server.
func (s *authService) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}

func (s *authService) Logout(ctx context.Context) {
	defer s.markReady()
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.log.Info("Logging out")

	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("Server logout failed, clearing local session anyway", logger.Fields{
			"error": err.Error(),
		})
	}

	s.clearLocal(ctx)
}

// clearLocal forgets the token whatever the server said. Callers hold opMu.
func (s *authService) clearLocal(ctx context.Context) {
	if err := s.state.Delete(ctx, model.StateKeyToken); err != nil {
		s.log.Error("Failed to delete stored token", err)
	}
	s.api.SetToken("")
	s.transition(ctx, false, nil)
}

func (s *authService) transition(ctx context.Context, authenticated bool, principal *model.Principal) {
	s.mu.Lock()
	changed := s.authenticated != authenticated
	s.authenticated = authenticated
	s.principal = principal
	listeners := make([]IdentityListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, listener := range listeners {
		listener(ctx, authenticated)
	}
}

func (s *authService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *authService) Principal() *model.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return nil
	}
	p := *s.principal
	return &p
}

func (s *authService) Loading() bool {
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

func (s *authService) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *authService) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// credentialError reports rejected credentials as AUTH_INVALID_CREDENTIALS.
func credentialError(err error, fallback string) error {
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrValidation) {
		return apperrors.Wrap(err, apperrors.AuthInvalidCredentials, apperrors.Message(err, fallback))
	}
	return apperrors.FromAPI(err, fallback)
}
