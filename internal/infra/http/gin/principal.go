package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
)

// The gateway authenticates callers and forwards their identity in these headers.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const principalContextKey = "principal"

// PrincipalFromHeaders attaches the forwarded identity to the request
// context. Requests without a user id stay anonymous.
func PrincipalFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			c.Next()
			return
		}
		role, err := access.ParseRole(c.GetHeader(HeaderUserRole))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown role", "code": "invalid_role"})
			return
		}
		setPrincipal(c, access.Principal{UserID: userID, Role: role})
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p access.Principal) {
	c.Set(principalContextKey, p)
	c.Request = c.Request.WithContext(access.WithPrincipal(c.Request.Context(), p))
}

func currentPrincipal(c *gin.Context) (access.Principal, bool) {
	return access.PrincipalFrom(c.Request.Context())
}
