package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/journeys/internal/service"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
)

type errorBody struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrJourneyNotReady), errors.Is(err, sqlstore.ErrProgressConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Server errors are attached to the
// context so the request logger reports them.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}
