// Package nftgate assembles the NFT-gated authentication service from a Config.
package nftgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/nftgate/adapters/chain"
	"github.com/layer-3/nftgate/adapters/events"
	"github.com/layer-3/nftgate/adapters/signature"
	"github.com/layer-3/nftgate/adapters/store"
	"github.com/layer-3/nftgate/adapters/tokenizer"
	"github.com/layer-3/nftgate/internal/config"
	"github.com/layer-3/nftgate/internal/metrics"
	"github.com/layer-3/nftgate/ports"
	"github.com/layer-3/nftgate/service"
	transport "github.com/layer-3/nftgate/transport/http"
	"github.com/redis/go-redis/v9"
)

// Gate is a wired instance of the service
type Gate struct {
	cfg     *config.Config
	logger  *slog.Logger
	router  *gin.Engine
	auth    *service.AuthService
	limiter *service.RateLimiter
	metrics *metrics.Metrics
	closers []func() error
}

// New creates a gate. Redis backs the rate limiter and the event stream when
// cfg.Redis.URL is set; otherwise both stay in process.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	g := &Gate{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		g.metrics = metrics.New(cfg.Metrics.Namespace)
	}

	if err := g.wire(ctx); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

func (g *Gate) wire(ctx context.Context) error {
	cfg := g.cfg

	networks := make([]service.Network, 0, len(cfg.Networks))
	for _, n := range cfg.Networks {
		resolver, err := chain.NewBalanceResolver(ctx, n.RPCURLs, n.Timeout, g.logger.With("network", n.Name), g.metrics)
		if err != nil {
			return fmt.Errorf("network %s: %w", n.Name, err)
		}
		g.onClose(func() error { resolver.Close(); return nil })

		networks = append(networks, service.Network{
			Name:     n.Name,
			ChainID:  n.ChainID,
			Contract: common.HexToAddress(n.Contract),
			Decimals: n.Decimals,
			Resolver: resolver,
		})
	}
	ownership := service.NewOwnershipService(networks, g.logger, g.metrics)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		g.onClose(redisClient.Close)
	}

	var holderStore, regularStore ports.RateLimitStore
	if redisClient != nil {
		holderStore = store.NewRedisStore(redisClient, cfg.Redis.Prefix+"ratelimit:holder:")
		regularStore = store.NewRedisStore(redisClient, cfg.Redis.Prefix+"ratelimit:regular:")
	} else {
		hs := store.NewMemoryStore(cfg.RateLimit.SweepInterval)
		rs := store.NewMemoryStore(cfg.RateLimit.SweepInterval)
		g.onClose(hs.Close)
		g.onClose(rs.Close)
		holderStore, regularStore = hs, rs
	}
	g.limiter = service.NewRateLimiter(
		holderStore, cfg.RateLimit.Holder.RateLimit(),
		regularStore, cfg.RateLimit.Regular.RateLimit(),
		g.logger, g.metrics,
	)

	eventPub, err := g.newEventPublisher(redisClient)
	if err != nil {
		return err
	}

	var tok ports.Tokenizer
	switch cfg.Session.Format {
	case config.TokenFormatDelimited:
		tok = tokenizer.NewDelimitedTokenizer(cfg.Session.Secret)
	default:
		tok = tokenizer.NewJWTTokenizer(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)
	}
	if cfg.Session.Secret == "" {
		g.logger.Warn("session secret is not configured, authentication will fail")
	}

	g.auth = service.NewAuthService(ownership, signature.NewPersonalVerifier(), tok, eventPub, g.logger)

	g.router, err = transport.SetupRouter(transport.RouterOptions{
		Auth:        g.auth,
		Limiter:     g.limiter,
		Manifest:    cfg.Manifest,
		UpstreamURL: cfg.OSINT.UpstreamURL,
		Metrics:     g.metrics,
		Logger:      g.logger,
	})
	return err
}

func (g *Gate) newEventPublisher(redisClient *redis.Client) (ports.EventPublisher, error) {
	if !g.cfg.Events.Enabled {
		return events.NopPublisher{}, nil
	}

	wmLogger := watermill.NewSlogLogger(g.logger)
	if redisClient == nil {
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		g.onClose(pubSub.Close)
		return events.NewWatermillPublisher(pubSub, g.cfg.Events.Topic), nil
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis stream publisher: %w", err)
	}
	g.onClose(publisher.Close)
	return events.NewWatermillPublisher(publisher, g.cfg.Events.Topic), nil
}

func (g *Gate) onClose(fn func() error) {
	g.closers = append(g.closers, fn)
}

// Handler returns the HTTP handler of the gate
func (g *Gate) Handler() http.Handler {
	return g.router
}

// Auth returns the authentication service
func (g *Gate) Auth() *service.AuthService {
	return g.auth
}

// Run serves HTTP on cfg.Listen until ctx is cancelled, then shuts down gracefully
func (g *Gate) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         g.cfg.Listen,
		Handler:      g.router,
		ReadTimeout:  g.cfg.ReadTimeout,
		WriteTimeout: g.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", g.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	timeout := g.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	g.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases stores, publishers and RPC clients in reverse order
func (g *Gate) Close() error {
	var errs []error
	for i := len(g.closers) - 1; i >= 0; i-- {
		if err := g.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	g.closers = nil
	return errors.Join(errs...)
}
