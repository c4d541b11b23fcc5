package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every gateway error.
type ErrorResponse struct {
	Error   string `json:"error"`   // error code
	Message string `json:"message"` // user displayable message
}

// RespondWithError writes the standard error body.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseAndRespond maps err and writes it.
func ParseAndRespond(c *gin.Context, err error, fallback string) {
	info := ParseError(err, fallback)
	RespondWithError(c, info.Status, info.Code, info.Message)
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Please log in to continue."
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You are not allowed to access this page."
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

// ValidationError carries per field messages.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Some fields are invalid.",
		Fields:  fields,
	})
}
