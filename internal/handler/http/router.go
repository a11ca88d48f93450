package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
	"github.com/Conava/Fortalis-Auth/internal/handler/http/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Auth    *AuthHandler
	MFA     *MFAHandler
	JWKS    *JWKSHandler
	Health  *HealthHandler
	Signer  domainService.TokenSigner
	Logger  *zap.Logger
	Metrics bool
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(deps.Logger))

	router.GET("/healthz", deps.Health.Live)
	router.GET("/readyz", deps.Health.Ready)
	router.GET("/.well-known/jwks.json", deps.JWKS.GetJWKS)
	if deps.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", deps.Auth.Register)
			auth.POST("/login", deps.Auth.Login)
			auth.POST("/login/start", deps.Auth.LoginStart)
			auth.POST("/login/complete", deps.Auth.LoginComplete)
			auth.POST("/refresh", deps.Auth.Refresh)
			auth.POST("/logout", deps.Auth.Logout)
		}

		mfa := v1.Group("/mfa")
		mfa.Use(middleware.Auth(deps.Signer, deps.Logger))
		{
			mfa.GET("/status", deps.MFA.Status)
			mfa.POST("/totp/setup", deps.MFA.SetupTOTP)
			mfa.POST("/totp/enable", deps.MFA.EnableTOTP)
			mfa.POST("/totp/disable", deps.MFA.DisableTOTP)
		}
	}

	return router
}
