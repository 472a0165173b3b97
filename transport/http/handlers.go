package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/internal/config"
	"github.com/layer-3/nftgate/service"
)

const accessGrantedMessage = "NFT ownership verified. Access granted!"

const accessDeniedMessage = "Access denied: You must own an NFT from the authorized collection to use this service"

// AuthHandlers contains HTTP handlers for auth, quota and static endpoints
type AuthHandlers struct {
	authService *service.AuthService
	limiter     *service.RateLimiter
	manifest    config.ManifestConfig
	logger      *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, limiter *service.RateLimiter, manifest config.ManifestConfig, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		authService: authService,
		limiter:     limiter,
		manifest:    manifest,
		logger:      logger,
	}
}

// VerifyNFT reports whether a wallet holds the NFT, before any signature is made
func (h *AuthHandlers) VerifyNFT(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required"})
		return
	}

	verdict, err := h.authService.Verify(c.Request.Context(), req.WalletAddress)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "ownership probe failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hasNFT":   verdict.HasNFT,
		"balance":  verdict.TotalBalance,
		"networks": verdict.PerNetwork,
		"details":  verdict,
	})
}

// Authenticate exchanges a signed challenge for a session token
func (h *AuthHandlers) Authenticate(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		Signature     string `json:"signature"`
		Message       string `json:"message"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.authService.Authenticate(c.Request.Context(), service.LoginRequest{
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
		Message:       req.Message,
	})
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user":       result.User,
		"token":      result.Token,
		"message":    accessGrantedMessage,
		"nftDetails": result.Verdict,
	})
}

func (h *AuthHandlers) writeAuthError(c *gin.Context, err error) {
	var ownershipErr *core.OwnershipError

	switch {
	case errors.Is(err, core.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address, signature, and message are required"})
	case errors.Is(err, core.ErrInvalidMessageFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message format"})
	case errors.Is(err, core.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
	case errors.Is(err, core.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
	case errors.As(err, &ownershipErr):
		c.JSON(http.StatusForbidden, gin.H{"error": accessDeniedMessage, "details": ownershipErr.Verdict})
	case errors.Is(err, core.ErrMissingSecret):
		h.logger.ErrorContext(c.Request.Context(), "session secret is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
	default:
		h.logger.ErrorContext(c.Request.Context(), "authentication failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Session returns the decoded bearer token. SessionMiddleware must run first.
func (h *AuthHandlers) Session(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":   session.Address,
		"holder":    session.Holder,
		"issuedAt":  session.IssuedAt,
		"expiresAt": session.ExpiresAt,
	})
}

// Quota reports the caller's remaining budget without consuming it
func (h *AuthHandlers) Quota(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not found in context"})
		return
	}

	limit := h.limiter.Limit(id.Holder)
	c.JSON(http.StatusOK, gin.H{
		"walletAddress": id.Wallet,
		"holder":        id.Holder,
		"limit":         limit.Max,
		"window":        limit.Window.String(),
		"remaining":     h.limiter.Remaining(c.Request.Context(), id.Wallet, id.Holder),
	})
}

// Manifest serves the mini app manifest
func (h *AuthHandlers) Manifest(c *gin.Context) {
	c.JSON(http.StatusOK, h.manifest)
}

// Health reports liveness and the number of tracked wallets
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"trackedWallets": h.limiter.Stats(),
	})
}
