package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	UserID uuid.UUID
	Roles  []string
}

// HasRole reports whether the caller holds role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// GetIdentity extracts the caller set by AuthRequired.
func GetIdentity(c *gin.Context) (Identity, bool) {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return Identity{}, false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		return Identity{}, false
	}

	var roles []string
	if rawRoles, ok := c.Get(ContextRolesKey); ok {
		roles, _ = rawRoles.([]string)
	}
	return Identity{UserID: userID, Roles: roles}, true
}

// MustGetIdentity aborts with 401 when no caller is present.
func MustGetIdentity(c *gin.Context) (Identity, bool) {
	id, ok := GetIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}
