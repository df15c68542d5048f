package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandler exposes the caller's own identity.
type UserHandler struct{}

// NewUserHandler builds a UserHandler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me returns the authenticated caller's identity record, or a null user for
// anonymous requests so clients can branch without handling an error.
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"subject":      id.Subject,
		"display_name": id.DisplayName(),
	}})
}
