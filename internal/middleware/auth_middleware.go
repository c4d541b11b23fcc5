package middleware

import (
	"net/http"

	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/errors"
	"github.com/gin-gonic/gin"
)

// Redirect targets of the route guards
const (
	LoginPath        = "/login"
	HomePath         = "/"
	UnauthorizedPath = "/unauthorized"
)

type GuardKind int

const (
	// GuardAuthenticated admits signed in visitors only
	GuardAuthenticated GuardKind = iota
	// GuardAnonymous admits visitors that are not signed in
	GuardAnonymous
	// GuardRole admits signed in visitors whose role is in Roles
	GuardRole
)

type Guard struct {
	Kind  GuardKind
	Roles []model.UserRole
}

// Decision is the outcome of a guard: either allow, or redirect somewhere.
type Decision struct {
	Allow    bool
	Redirect string
}

// Decide applies a guard to the settled authentication state.
func Decide(g Guard, authenticated bool, principal *model.Principal) Decision {
	switch g.Kind {
	case GuardAnonymous:
		if authenticated {
			return Decision{Redirect: HomePath}
		}
	case GuardRole:
		if !authenticated {
			return Decision{Redirect: LoginPath}
		}
		if !principal.HasRole(g.Roles...) {
			return Decision{Redirect: UnauthorizedPath}
		}
	default:
		if !authenticated {
			return Decision{Redirect: LoginPath}
		}
	}
	return Decision{Allow: true}
}

// RequireAuth redirects anonymous visitors to the login page.
func RequireAuth() gin.HandlerFunc {
	return guard(Guard{Kind: GuardAuthenticated})
}

// RequireGuest redirects signed in visitors to the home page.
func RequireGuest() gin.HandlerFunc {
	return guard(Guard{Kind: GuardAnonymous})
}

// RequireRole checks if the visitor has one of the roles
func RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return guard(Guard{Kind: GuardRole, Roles: roles})
}

func guard(g Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		sf, ok := GetStorefront(c)
		if !ok {
			log.Error("Guard used without a visitor storefront", nil, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusInternalServerError, errors.InternalServerError, "Something went wrong. Please try again.")
			c.Abort()
			return
		}

		// the session check may still be running
		if err := sf.Auth.WaitReady(c.Request.Context()); err != nil {
			log.Warn("Request gave up waiting for the session check", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			errors.RespondWithError(c, http.StatusServiceUnavailable, errors.NetworkError, "Session is still loading. Please try again.")
			c.Abort()
			return
		}

		principal := sf.Auth.Principal()
		decision := Decide(g, sf.Auth.IsAuthenticated(), principal)
		if !decision.Allow {
			fields := map[string]interface{}{
				"path":     c.Request.URL.Path,
				"redirect": decision.Redirect,
			}
			if principal != nil {
				fields["user_id"] = principal.ID
				fields["user_role"] = principal.Role
			}
			log.Debug("Guard redirected request", fields)
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetPrincipal returns the signed in principal of the visitor
func GetPrincipal(c *gin.Context) (*model.Principal, bool) {
	sf, ok := GetStorefront(c)
	if !ok {
		return nil, false
	}
	p := sf.Auth.Principal()
	return p, p != nil
}
