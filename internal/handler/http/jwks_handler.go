package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
)

// JWKSHandler publishes the access token verification keys. Region game
// servers poll this endpoint to validate session tokens locally.
type JWKSHandler struct {
	signer domainService.TokenSigner
	logger *zap.Logger
}

// NewJWKSHandler creates a JWKSHandler.
func NewJWKSHandler(signer domainService.TokenSigner, logger *zap.Logger) *JWKSHandler {
	return &JWKSHandler{signer: signer, logger: logger}
}

// GetJWKS handles GET /.well-known/jwks.json.
func (h *JWKSHandler) GetJWKS(c *gin.Context) {
	keySet, err := h.signer.JWKS()
	if err != nil {
		RespondWithError(c, err, h.logger)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, keySet)
}
