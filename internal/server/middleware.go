package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const (
	// HeaderOwner scopes every request to one book-keeping tenant.
	HeaderOwner = "X-Owner-ID"

	ctxOwnerKey = "owner_id"
)

// OwnerRequired rejects requests without a parseable owner header.
func (s *Server) OwnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOwner))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		ownerID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(ctxOwnerKey, ownerID)
		c.Next()
	}
}

func ownerFromContext(c *gin.Context) snowflake.ID {
	value, ok := c.Get(ctxOwnerKey)
	if !ok {
		return 0
	}
	ownerID, _ := value.(snowflake.ID)
	return ownerID
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid_id", "invalid id")
	}
	return id, nil
}
