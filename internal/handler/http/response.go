package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	RetryAfterSeconds int64  `json:"retryAfterSeconds,omitempty"`
}

// RespondWithError maps a domain error onto an HTTP status and stable API
// code. Rate limit errors additionally carry a Retry-After header.
func RespondWithError(c *gin.Context, err error, logger *zap.Logger) {
	var rl *domainErrors.RateLimitError
	if errors.As(err, &rl) {
		retryAfter := int64(rl.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:             "too many attempts",
			Code:              "rate_limited",
			RetryAfterSeconds: retryAfter,
		})
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(status, ErrorResponse{Error: "internal server error", Code: code})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domainErrors.ErrMFARequired):
		return http.StatusUnauthorized, "mfa_required"
	case errors.Is(err, domainErrors.ErrInvalidMFACode):
		return http.StatusUnauthorized, "invalid_mfa_code"
	case errors.Is(err, domainErrors.ErrMFAFactorNotAllowed):
		return http.StatusUnauthorized, "mfa_factor_not_allowed"
	case errors.Is(err, domainErrors.ErrChallengeInvalid):
		return http.StatusUnauthorized, "challenge_invalid"
	case errors.Is(err, domainErrors.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "invalid_refresh_token"
	case errors.Is(err, domainErrors.ErrExpiredRefreshToken):
		return http.StatusUnauthorized, "refresh_token_expired"
	case domainErrors.IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domainErrors.ErrMFANotSetUp):
		return http.StatusBadRequest, "mfa_not_set_up"
	case domainErrors.IsBadRequest(err):
		return http.StatusBadRequest, "bad_request"
	case domainErrors.IsConflict(err):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondWithValidationError reports a malformed request body.
func RespondWithValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: err.Error(),
		Code:  "validation_failed",
	})
}
