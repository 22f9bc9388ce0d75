package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardclash/backend/internal/engine"
)

// ErrorResponse represents a failed request. Every validation message that
// applied is listed, not just the first.
type ErrorResponse struct {
	Errors []string `json:"errors" example:"Lobby is full."`
}

// respondError maps an engine failure onto an HTTP status. Anything that is
// not a typed engine error is an infrastructure fault and surfaces as a 500.
func respondError(c *gin.Context, err error) {
	e := engine.AsError(err)
	if e == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Errors: []string{"Internal server error."}})
		return
	}

	var status int
	switch e.Kind {
	case engine.KindInvalidInput, engine.KindInvalidAttribute:
		status = http.StatusBadRequest
	case engine.KindUnauthorized:
		status = http.StatusUnauthorized
	case engine.KindForbidden:
		status = http.StatusForbidden
	case engine.KindNotFound:
		status = http.StatusNotFound
	default:
		// state conflicts: full, closed, locked, out of turn, already started...
		status = http.StatusConflict
	}

	c.JSON(status, ErrorResponse{Errors: e.Messages})
}
