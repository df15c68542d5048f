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

// TypingHandler manages the typing indicator endpoints.
type TypingHandler struct {
	typingRepo repositories.TypingRepository
	refresher  Refresher
}

// NewTypingHandler builds a TypingHandler.
func NewTypingHandler(typingRepo repositories.TypingRepository, refresher Refresher) *TypingHandler {
	return &TypingHandler{
		typingRepo: typingRepo,
		refresher:  refresher,
	}
}

// Ping marks the caller as typing in a room.
func (h *TypingHandler) Ping(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	room := roomFromPath(c)
	entry := models.TypingEntry{
		Room:        room,
		UserID:      id.Subject,
		DisplayName: id.DisplayName(),
		LastTypedMs: time.Now().UnixMilli(),
	}
	if err := h.typingRepo.Ping(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record typing"})
		return
	}

	observability.IncTypingPing()
	h.refresher.Refresh(c.Request.Context(), room)
	c.Status(http.StatusNoContent)
}

// Stop clears the caller's typing entry immediately instead of waiting for
// the window to lapse. Always succeeds silently.
func (h *TypingHandler) Stop(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	room := roomFromPath(c)
	if err := h.typingRepo.Stop(c.Request.Context(), room, id.Subject); err != nil {
		log.Printf("typing stop failed room=%s user=%s: %v", room, id.Subject, err)
		c.Status(http.StatusNoContent)
		return
	}

	h.refresher.Refresh(c.Request.Context(), room)
	c.Status(http.StatusNoContent)
}

// ListTyping returns the users typing inside the typing window.
func (h *TypingHandler) ListTyping(c *gin.Context) {
	room := roomFromPath(c)

	typing, err := h.typingRepo.ListTyping(c.Request.Context(), room, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load typing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"typing": typing})
}
