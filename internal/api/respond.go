package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portshare-backend/internal/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses. Conflicting
// concurrent modifications, registry precondition violations and
// illegal transitions all surface as 409 so the caller re-reads the
// order's true state before retrying.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
