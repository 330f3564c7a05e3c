package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/services"
)

// JWTAuth validates the Authorization bearer token and stores the member id
// and role on the request context.
func JWTAuth(members services.MemberServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c, "Bearer token required")
			return
		}

		memberID, role, err := members.VerifyToken(token)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set("member_id", memberID)
		c.Set("member_role", role)
		c.Next()
	}
}

// AdminOnly restricts an endpoint to members with the admin role. It must run
// after JWTAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("member_role") != models.RoleAdmin {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:     "Forbidden",
				Message:   "Admin role required",
				Code:      "FORBIDDEN",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:     "Unauthorized",
		Message:   message,
		Code:      "UNAUTHORIZED",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
	c.Abort()
}
