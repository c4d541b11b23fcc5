package controller

import (
	"net/http"
	"strconv"

	"github.com/gamexpress/storefront/internal/app/service"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/gamexpress/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError writes field errors as 422 and everything else through the
// shared error mapping.
func respondError(c *gin.Context, err error, fallback string) {
	if fields := apperrors.Fields(err); len(fields) > 0 {
		apperrors.RespondWithValidationError(c, fields)
		return
	}
	apperrors.ParseAndRespond(c, err, fallback)
}

// storefrontOf returns the visitor's storefront or answers 500.
func storefrontOf(c *gin.Context) (*service.Storefront, bool) {
	sf, ok := middleware.GetStorefront(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Error("Request reached a controller without a storefront", nil, map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalServerError, "Something went wrong. Please try again.")
		return nil, false
	}
	return sf, true
}

// idParam parses a positive numeric path parameter or answers 400.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return false
	}
	return true
}
