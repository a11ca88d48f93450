package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
)

// Gin context keys populated by Auth.
const (
	ContextAccountIDKey = "account_id"
	ContextMFAClaimKey  = "mfa_claim"
	authHeaderKey       = "Authorization"
	bearerType          = "Bearer"
)

// Auth validates the Bearer access token and stores the account id and mfa
// claim on the gin context.
func Auth(signer domainService.TokenSigner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeaderKey)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header is required",
				"code":  "unauthorized",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerType) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected 'Bearer {token}'",
				"code":  "unauthorized",
			})
			return
		}

		accountID, mfaEnabled, err := signer.VerifyAccessToken(parts[1])
		if err != nil {
			logger.Warn("access token rejected",
				zap.Error(err),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"code":  "unauthorized",
			})
			return
		}

		c.Set(ContextAccountIDKey, accountID)
		c.Set(ContextMFAClaimKey, mfaEnabled)
		c.Next()
	}
}
