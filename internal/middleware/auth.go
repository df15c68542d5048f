package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rooms-service/internal/identity"
)

// Authenticate validates the Authorization header and threads the resolved
// identity into the request context. Requests without a valid identity are
// rejected.
func Authenticate(verifier *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resolve(c, verifier)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// AuthenticateOptional resolves the identity when present but lets the
// request through either way. Used on read paths and on leave/stop, which
// must succeed silently during page-unload races.
func AuthenticateOptional(verifier *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := resolve(c, verifier); ok {
			c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

func resolve(c *gin.Context, verifier *identity.Verifier) (identity.Identity, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return identity.Identity{}, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return identity.Identity{}, false
	}

	id, err := verifier.Verify(parts[1])
	if err != nil {
		return identity.Identity{}, false
	}
	return id, true
}
