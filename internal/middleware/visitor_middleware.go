package middleware

import (
	"net/http"

	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gamexpress/storefront/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys for visitor information
const (
	VisitorIDKey  = "visitor_id"
	StorefrontKey = "storefront"
)

const (
	VisitorCookie       = "gx_visitor"
	visitorCookieMaxAge = 60 * 60 * 24 * 30
)

// StorefrontSource hands out the storefront of a visitor.
type StorefrontSource interface {
	Storefront(visitorID string) (*service.Storefront, error)
}

// Visitor identifies the visitor by cookie, minting a new id when the cookie
// is missing or malformed, and attaches the visitor's storefront.
func Visitor(source StorefrontSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		visitorID, err := c.Cookie(VisitorCookie)
		if err != nil || !validUUID(visitorID) {
			visitorID = uuid.NewString()
			log.Debug("New visitor", map[string]interface{}{
				"visitor_id": visitorID,
			})
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(VisitorCookie, visitorID, visitorCookieMaxAge, "/", "", false, true)

		sf, err := source.Storefront(visitorID)
		if err != nil {
			log.Error("Failed to load visitor storefront", err, map[string]interface{}{
				"visitor_id": visitorID,
			})
			errors.RespondWithError(c, http.StatusInternalServerError, errors.InternalStateStore, "Something went wrong. Please try again.")
			c.Abort()
			return
		}

		c.Set(VisitorIDKey, visitorID)
		c.Set(StorefrontKey, sf)
		c.Next()
	}
}

// GetStorefront extracts the visitor's storefront from context
func GetStorefront(c *gin.Context) (*service.Storefront, bool) {
	sf, exists := c.Get(StorefrontKey)
	if !exists {
		return nil, false
	}
	s, ok := sf.(*service.Storefront)
	return s, ok
}

// GetVisitorID extracts the visitor id from context
func GetVisitorID(c *gin.Context) (string, bool) {
	id, exists := c.Get(VisitorIDKey)
	if !exists {
		return "", false
	}
	return id.(string), true
}
