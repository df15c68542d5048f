package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"rooms-service/internal/models"
	"rooms-service/internal/repositories"
	"rooms-service/internal/telemetry"
	"rooms-service/internal/ws"
)

// MessageHandler manages room message endpoints.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		hub:         hub,
		audit:       audit,
	}
}

// List returns the most recent messages in a room, newest first.
func (h *MessageHandler) List(c *gin.Context) {
	room := roomFromPath(c)

	limit := repositories.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	msgs, err := h.messageRepo.ListByRoom(c.Request.Context(), room, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Send stores a message authored by the caller and broadcasts it. An empty
// body after trimming is accepted and dropped without creating anything.
func (h *MessageHandler) Send(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room := roomFromPath(c)
	body := strings.TrimSpace(req.Body)
	if body == "" {
		c.Status(http.StatusNoContent)
		return
	}

	msg, err := h.messageRepo.Create(c.Request.Context(), room, id.Subject, id.DisplayName(), body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.Broadcast(models.RoomEvent{Type: models.EventMessage, Room: room, Message: &msg})
	h.audit.Emit(c.Request.Context(), "info", "message sent", requestIDFromContext(c), room, subjectPtr(id))
	c.JSON(http.StatusCreated, msg)
}

// Edit replaces the body of a message the caller authored. Checks resolve
// in order: missing message, foreign author, empty body. The UPDATE still
// carries the ownership guard, so the point read cannot race the write.
func (h *MessageHandler) Edit(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messageID := c.Param("message_id")
	current, err := h.messageRepo.Get(c.Request.Context(), messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}
	if current.AuthorID != id.Subject {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body cannot be empty"})
		return
	}

	err = h.messageRepo.UpdateBody(c.Request.Context(), messageID, id.Subject, body)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		// The guarded UPDATE matched nothing, so the row vanished after
		// the read above.
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit message"})
		return
	}

	msg, err := h.messageRepo.Get(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}

	h.hub.Broadcast(models.RoomEvent{Type: models.EventMessageEdited, Room: msg.Room, Message: &msg})
	h.audit.Emit(c.Request.Context(), "info", "message edited", requestIDFromContext(c), msg.Room, subjectPtr(id))
	c.JSON(http.StatusOK, msg)
}

// Remove deletes a message the caller authored. A missing message is a
// silent success; someone else's message is forbidden.
func (h *MessageHandler) Remove(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	messageID := c.Param("message_id")
	msg, err := h.messageRepo.Get(c.Request.Context(), messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}

	err = h.messageRepo.Delete(c.Request.Context(), messageID, id.Subject)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		// The guarded DELETE matched nothing: either the author differs or
		// the row vanished underneath us. Re-read to tell the two apart.
		if _, getErr := h.messageRepo.Get(c.Request.Context(), messageID); getErr == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
			return
		}
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	h.hub.Broadcast(models.RoomEvent{Type: models.EventMessageDeleted, Room: msg.Room, MessageID: messageID})
	h.audit.Emit(c.Request.Context(), "info", "message deleted", requestIDFromContext(c), msg.Room, subjectPtr(id))
	c.Status(http.StatusNoContent)
}
