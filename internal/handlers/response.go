package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-tracker/internal/services"
)

// ErrorResponse はAPIのエラーレスポンスです。
type ErrorResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

func respondError(c *gin.Context, status int, message string, fields []services.FieldError) {
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Message: message, Errors: fields})
}

// RespondUnauthenticated はAPIルート向けの401レスポンスを返します。
func RespondUnauthenticated(c *gin.Context) {
	respondError(c, http.StatusUnauthorized, "Not authenticated", nil)
}

// respondServerError は内部エラーの詳細をクライアントに返しません。
func respondServerError(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "Server error", nil)
}
