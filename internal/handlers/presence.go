package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rooms-service/internal/models"
	"rooms-service/internal/observability"
	"rooms-service/internal/repositories"
)

// PresenceHandler manages the online presence endpoints.
type PresenceHandler struct {
	presenceRepo repositories.PresenceRepository
	refresher    Refresher
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(presenceRepo repositories.PresenceRepository, refresher Refresher) *PresenceHandler {
	return &PresenceHandler{
		presenceRepo: presenceRepo,
		refresher:    refresher,
	}
}

func sessionFromRequest(c *gin.Context) string {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err == nil && req.SessionID != "" {
		return req.SessionID
	}
	return observability.SessionIDFromRequest(c.Request)
}

// Heartbeat records that one of the caller's sessions is alive in a room.
// Repeated calls refresh the timestamp and display name.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	sessionID := sessionFromRequest(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	room := roomFromPath(c)
	entry := models.PresenceEntry{
		Room:        room,
		UserID:      id.Subject,
		SessionID:   sessionID,
		DisplayName: id.DisplayName(),
		LastSeenMs:  time.Now().UnixMilli(),
	}
	if err := h.presenceRepo.Heartbeat(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record heartbeat"})
		return
	}

	observability.IncHeartbeat()
	h.refresher.Refresh(c.Request.Context(), room)
	c.Status(http.StatusNoContent)
}

// Leave drops one session's presence entry ahead of window expiry. It is
// fired from page unload, so every branch succeeds silently.
func (h *PresenceHandler) Leave(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	sessionID := sessionFromRequest(c)
	if sessionID == "" {
		c.Status(http.StatusNoContent)
		return
	}

	room := roomFromPath(c)
	if err := h.presenceRepo.Leave(c.Request.Context(), room, id.Subject, sessionID); err != nil {
		log.Printf("presence leave failed room=%s user=%s: %v", room, id.Subject, err)
		c.Status(http.StatusNoContent)
		return
	}

	h.refresher.Refresh(c.Request.Context(), room)
	c.Status(http.StatusNoContent)
}

// ListOnline returns the deduplicated set of users seen inside the online
// window.
func (h *PresenceHandler) ListOnline(c *gin.Context) {
	room := roomFromPath(c)

	online, err := h.presenceRepo.ListOnline(c.Request.Context(), room, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"online": online})
}
