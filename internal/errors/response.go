package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondWithError writes an error body and aborts the handler chain.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, details string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Details: details,
	})
}

func Unauthorized(c *gin.Context, details string) {
	if details == "" {
		details = "Authorization header is required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, details)
}

func Forbidden(c *gin.Context, details string) {
	if details == "" {
		details = "Admin role is required"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, details)
}

func NotFound(c *gin.Context) {
	RespondWithError(c, http.StatusNotFound, ResourceNotFound, "Not found")
}

func Conflict(c *gin.Context, errorCode string, details string) {
	RespondWithError(c, http.StatusConflict, errorCode, details)
}

func InternalError(c *gin.Context, errorCode string, details string) {
	if errorCode == "" {
		errorCode = InternalServerError
	}
	RespondWithError(c, http.StatusInternalServerError, errorCode, details)
}
