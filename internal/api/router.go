package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/walidkhelifa/consulink/internal/app"
	iauth "github.com/walidkhelifa/consulink/internal/auth"
	"github.com/walidkhelifa/consulink/internal/auth/providers"
	"github.com/walidkhelifa/consulink/internal/handlers"
	"github.com/walidkhelifa/consulink/internal/middleware"
)

// NewRouter builds the Gin engine, wires middleware and registers the portal routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, registry *providers.Registry, cfg *app.Config, rates middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if registry == nil {
		return nil, fmt.Errorf("provider registry must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	login, ok := registry.Lookup("otp_login")
	if !ok {
		return nil, fmt.Errorf("login provider is not registered")
	}
	signup, ok := registry.Lookup("otp_signup")
	if !ok {
		return nil, fmt.Errorf("signup provider is not registered")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(rates, cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window))
	}

	r.NoRoute(middleware.NotFoundHandler)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(db, jwt, login, signup)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login/send", authHandler.LoginSend)
		auth.POST("/login/verify", authHandler.LoginVerify)
		auth.POST("/signup/send", authHandler.SignupSend)
		auth.POST("/signup/verify", authHandler.SignupVerify)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	return r, nil
}
