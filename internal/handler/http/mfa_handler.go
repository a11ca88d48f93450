package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Conava/Fortalis-Auth/internal/handler/http/middleware"
	"github.com/Conava/Fortalis-Auth/internal/service"
)

// MFAHandler serves the authenticated TOTP lifecycle endpoints.
type MFAHandler struct {
	mfa    *service.MFAService
	logger *zap.Logger
}

// NewMFAHandler creates an MFAHandler.
func NewMFAHandler(mfa *service.MFAService, logger *zap.Logger) *MFAHandler {
	return &MFAHandler{mfa: mfa, logger: logger}
}

type mfaSetupResponse struct {
	Secret      string   `json:"secret"`
	OtpauthURL  string   `json:"otpauthUrl"`
	BackupCodes []string `json:"backupCodes"`
}

type mfaCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// SetupTOTP handles POST /api/v1/mfa/totp/setup. Repeating setup replaces
// the pending secret and backup codes and leaves MFA disabled until the
// player confirms with a code.
func (h *MFAHandler) SetupTOTP(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.mfa.SetupTOTP(c.Request.Context(), accountID)
	if err != nil {
		RespondWithError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mfaSetupResponse{
		Secret:      result.Secret,
		OtpauthURL:  result.OtpauthURL,
		BackupCodes: result.BackupCodes,
	})
}

// EnableTOTP handles POST /api/v1/mfa/totp/enable.
func (h *MFAHandler) EnableTOTP(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}
	var req mfaCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	if err := h.mfa.EnableTOTP(c.Request.Context(), accountID, req.Code); err != nil {
		RespondWithError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

// DisableTOTP handles POST /api/v1/mfa/totp/disable.
func (h *MFAHandler) DisableTOTP(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}
	var req mfaCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	if err := h.mfa.DisableTOTP(c.Request.Context(), accountID, req.Code); err != nil {
		RespondWithError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": false})
}

// Status handles GET /api/v1/mfa/status.
func (h *MFAHandler) Status(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	enabled, err := h.mfa.IsEnabled(c.Request.Context(), accountID)
	if err != nil {
		RespondWithError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

func accountIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.ContextAccountIDKey)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  "unauthorized",
		})
		return uuid.Nil, false
	}
	accountID, ok := value.(uuid.UUID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  "unauthorized",
		})
		return uuid.Nil, false
	}
	return accountID, true
}
