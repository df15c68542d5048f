package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rooms-service/internal/identity"
	"rooms-service/internal/middleware"
	"rooms-service/internal/rooms"
)

// Refresher pushes recomputed presence/typing views to room subscribers.
// Mutating handlers call it after the store write so observers converge
// without waiting for the periodic sweep.
type Refresher interface {
	Refresh(ctx context.Context, room string)
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(middleware.RequestIDKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func roomFromPath(c *gin.Context) string {
	return rooms.Normalize(c.Param("room"))
}

func callerID(c *gin.Context) (identity.Identity, bool) {
	return identity.FromContext(c.Request.Context())
}

func subjectPtr(id identity.Identity) *string {
	if id.Subject == "" {
		return nil
	}
	subject := id.Subject
	return &subject
}
