package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pmills/discobase/internal/database"
)

const userContextKey = "auth.user"

// Middleware validates the bearer token on incoming requests and stores the
// authenticated user on the gin context.
func Middleware(svc *Service, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		userID, err := svc.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		var user database.User
		if err := db.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by Middleware.
func CurrentUser(c *gin.Context) *database.User {
	if v, ok := c.Get(userContextKey); ok {
		if u, ok := v.(*database.User); ok {
			return u
		}
	}
	return nil
}
