package http

import (
	"fmt"
	"log/slog"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/nftgate/internal/config"
	"github.com/layer-3/nftgate/internal/metrics"
	"github.com/layer-3/nftgate/service"
)

const osintPrefix = "/api/osint"

// RouterOptions carries what SetupRouter wires into the routes
type RouterOptions struct {
	Auth        *service.AuthService
	Limiter     *service.RateLimiter
	Manifest    config.ManifestConfig
	UpstreamURL string
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(opts RouterOptions) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var proxy *httputil.ReverseProxy
	if opts.UpstreamURL != "" {
		target, err := url.Parse(opts.UpstreamURL)
		if err != nil {
			return nil, fmt.Errorf("invalid osint upstream url: %w", err)
		}
		proxy = NewOSINTProxy(target, osintPrefix, logger)
	}

	router := gin.New()
	router.Use(Recovery(logger), RequestLogger(logger))
	if opts.Metrics != nil {
		router.Use(Metrics(opts.Metrics))
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	handlers := NewAuthHandlers(opts.Auth, opts.Limiter, opts.Manifest, logger)

	router.GET("/healthz", handlers.Health)
	router.GET("/.well-known/farcaster.json", handlers.Manifest)

	api := router.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/verify-nft", handlers.VerifyNFT)
		auth.POST("/nft-auth", handlers.Authenticate)
		auth.GET("/session", SessionMiddleware(opts.Auth), handlers.Session)
	}

	api.GET("/quota", IdentityMiddleware(opts.Auth), handlers.Quota)

	// Rate-limited OSINT routes
	osint := api.Group("/osint")
	osint.Use(IdentityMiddleware(opts.Auth), RateLimitMiddleware(opts.Limiter))
	{
		osint.Any("/*path", OSINTHandler(proxy))
	}

	return router, nil
}
