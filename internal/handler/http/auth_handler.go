package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	"github.com/Conava/Fortalis-Auth/internal/domain/models"
	"github.com/Conava/Fortalis-Auth/internal/service"
	"github.com/Conava/Fortalis-Auth/internal/utils/metrics"
)

// AuthHandler serves registration, login and token endpoints.
type AuthHandler struct {
	accounts *service.AccountService
	login    *service.LoginService
	tokens   *service.TokenService
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	accounts *service.AccountService,
	login *service.LoginService,
	tokens *service.TokenService,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{accounts: accounts, login: login, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required,min=3,max=64"`
}

type registerResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		RespondWithError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		ID:          account.ID.String(),
		Email:       account.Email,
		DisplayName: account.DisplayName,
	})
}

type loginStartRequest struct {
	Principal string `json:"principal" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type loginRequest struct {
	Principal string `json:"principal" binding:"required"`
	Password  string `json:"password" binding:"required"`
	MFACode   string `json:"mfaCode"`
}

type loginCompleteRequest struct {
	LoginTicket string `json:"loginTicket" binding:"required"`
	Factor      string `json:"factor" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type challengeResponse struct {
	MFARequired    bool     `json:"mfaRequired"`
	LoginTicket    string   `json:"loginTicket"`
	AllowedFactors []string `json:"allowedFactors"`
}

// Login handles POST /api/v1/auth/login, the one-step flow: the MFA code is
// supplied inline. An account with MFA enabled and no code in the request
// gets 401 mfa_required and can retry with a code or use the two-step flow.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	result, err := h.login.LoginWithCode(c.Request.Context(), req.Principal, req.Password, req.MFACode, c.ClientIP())
	if err != nil {
		h.countLogin(err)
		RespondWithError(c, err, h.logger)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, toTokenPairResponse(result.Tokens))
}

// LoginStart handles POST /api/v1/auth/login/start. The response is either
// a token pair or an MFA challenge carrying a one-time login ticket.
func (h *AuthHandler) LoginStart(c *gin.Context) {
	var req loginStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	result, err := h.login.Login(c.Request.Context(), req.Principal, req.Password, c.ClientIP())
	if err != nil {
		h.countLogin(err)
		RespondWithError(c, err, h.logger)
		return
	}

	if result.MFARequired() {
		metrics.LoginAttempts.WithLabelValues("mfa_required").Inc()
		c.JSON(http.StatusOK, challengeResponse{
			MFARequired:    true,
			LoginTicket:    result.Challenge.LoginTicket,
			AllowedFactors: result.Challenge.AllowedFactors,
		})
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, toTokenPairResponse(result.Tokens))
}

// LoginComplete handles POST /api/v1/auth/login/complete.
func (h *AuthHandler) LoginComplete(c *gin.Context) {
	var req loginCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	result, err := h.login.CompleteLogin(c.Request.Context(), req.LoginTicket, req.Factor, req.Code)
	if err != nil {
		h.countCompletion(err)
		RespondWithError(c, err, h.logger)
		return
	}

	metrics.ChallengeCompletions.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, toTokenPairResponse(result.Tokens))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh handles POST /api/v1/auth/refresh. The presented refresh token is
// rotated: it stops working and a new pair is returned.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	pair, err := h.tokens.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.countRefresh(err)
		RespondWithError(c, err, h.logger)
		return
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

// Logout handles POST /api/v1/auth/logout. Revocation is idempotent, so an
// already-revoked or unknown token still yields 204.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithValidationError(c, err)
		return
	}

	if err := h.tokens.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		RespondWithError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func toTokenPairResponse(pair *models.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresInSeconds,
	}
}

func (h *AuthHandler) countLogin(err error) {
	switch {
	case domainErrors.IsRateLimited(err):
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitHits.WithLabelValues("login").Inc()
	case errors.Is(err, domainErrors.ErrMFARequired):
		metrics.LoginAttempts.WithLabelValues("mfa_required").Inc()
	case domainErrors.IsUnauthorized(err):
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
	default:
		metrics.LoginAttempts.WithLabelValues("error").Inc()
	}
}

func (h *AuthHandler) countCompletion(err error) {
	switch {
	case domainErrors.IsRateLimited(err):
		metrics.ChallengeCompletions.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitHits.WithLabelValues("ticket").Inc()
	case domainErrors.IsUnauthorized(err):
		metrics.ChallengeCompletions.WithLabelValues("rejected").Inc()
	default:
		metrics.ChallengeCompletions.WithLabelValues("error").Inc()
	}
}

func (h *AuthHandler) countRefresh(err error) {
	switch {
	case domainErrors.IsUnauthorized(err):
		metrics.TokenRefreshes.WithLabelValues("invalid").Inc()
	default:
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
	}
}
