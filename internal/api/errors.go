package api

import (
	"errors"
	"net/http"

	"tenzinsgym/pos/internal/repository"
	"tenzinsgym/pos/internal/service"
	"tenzinsgym/pos/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthenticationFailed), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSaleAlreadyPaid),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, storage.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError aborts with the status matching err. Internal errors are
// logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		zap.S().Errorw("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(ContextRequestIDKey),
			"error", err)
		abortWithError(c, code, "An unexpected error occurred")
		return
	}
	abortWithError(c, code, err.Error())
}
