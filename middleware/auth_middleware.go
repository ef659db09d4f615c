package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"moodping/api/utils"
)

const (
	ContextUserID  = "user_id"
	ContextKakaoID = "kakao_id"

	AuthCookie     = "jwt_token"
	DebugKeyHeader = "X-Debug-Key"
)

// OptionalAuth sets the user in the context when a valid token is present and
// lets the request through either way.
func OptionalAuth(tokens *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := tokens.Validate(tokenString); err == nil {
				setUser(c, claims)
			} else {
				log.WithField("request_id", RequestIDFrom(c)).Debugf("OptionalAuth: ignoring invalid token: %v", err)
			}
		}
		c.Next()
	}
}

func AuthRequired(tokens *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}
		claims, err := tokens.Validate(tokenString)
		if err != nil {
			log.Printf("AuthRequired: Invalid JWT token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}
		if !setUser(c, claims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}
		c.Next()
	}
}

// DebugKey guards operator endpoints with a bcrypt hash of the shared key.
// An empty hash leaves the endpoints open, which is only meant for local runs.
func DebugKey(hash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hash == "" {
			c.Next()
			return
		}
		key := c.GetHeader(DebugKeyHeader)
		if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// UserIDFrom returns the authenticated user id, if any.
func UserIDFrom(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func setUser(c *gin.Context, claims *utils.Claims) bool {
	id, err := claims.UserID()
	if err != nil {
		return false
	}
	c.Set(ContextUserID, id)
	c.Set(ContextKakaoID, claims.KakaoID)
	return true
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}
