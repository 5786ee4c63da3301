package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cookie-api/internal/domain"
)

// AdminAuth protege os endpoints administrativos de mutação exigindo um
// token de sessão válido no header Authorization (Bearer)
func AdminAuth(admin domain.AdminService, logger domain.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := extractBearerToken(c)

		if tok == "" || !admin.ValidSession(tok) {
			if logger != nil {
				logger.Warn("Unauthorized admin request", map[string]interface{}{
					"client_ip": GetClientIP(c),
					"path":      c.Request.URL.Path,
				})
			}

			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Admin authentication required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractBearerToken extrai o token do header Authorization
func extractBearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	// Tolera o token sem o prefixo Bearer
	return strings.TrimSpace(auth)
}
