package handlers

import (
	"errors"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/m1z23r/drift/pkg/drift"
)

// respondCollabError maps manager sentinel errors to HTTP responses.
func respondCollabError(c *drift.Context, err error) {
	switch {
	case errors.Is(err, collab.ErrUnauthenticated):
		c.Unauthorized("not authenticated")
	case errors.Is(err, collab.ErrNotAParticipant):
		c.Forbidden("not a participant of this session")
	case errors.Is(err, collab.ErrNotAllowed):
		c.Forbidden("not allowed")
	case errors.Is(err, collab.ErrSessionNotFound):
		c.NotFound("session not found")
	case errors.Is(err, collab.ErrSessionClosed):
		_ = c.JSON(410, map[string]string{"error": "SESSION_CLOSED", "message": "session is closed"})
	case errors.Is(err, collab.ErrSessionFull):
		_ = c.JSON(409, map[string]string{"error": "SESSION_FULL", "message": "session is at capacity"})
	case errors.Is(err, collab.ErrUnknownResolution):
		c.BadRequest("unknown resolution choice")
	default:
		c.InternalServerError("internal error")
	}
}
