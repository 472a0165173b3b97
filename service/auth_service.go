package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// LoginRequest is a signed login attempt
type LoginRequest struct {
	WalletAddress string
	Signature     string
	Message       string
}

// AuthResult is returned on successful authentication
type AuthResult struct {
	User    core.User
	Token   string
	Verdict core.OwnershipVerdict
}

// AuthService handles authentication business logic
type AuthService struct {
	ownership ports.OwnershipVerifier
	verifier  ports.SignatureVerifier
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	ownership ports.OwnershipVerifier,
	verifier ports.SignatureVerifier,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		ownership: ownership,
		verifier:  verifier,
		tokenizer: tokenizer,
		eventPub:  eventPub,
		logger:    logger,
		now:       time.Now,
	}
}

// Verify is the pre-authentication ownership probe
func (s *AuthService) Verify(ctx context.Context, wallet string) (core.OwnershipVerdict, error) {
	wallet = strings.TrimSpace(wallet)
	if !core.IsAddress(wallet) {
		return core.ZeroVerdict(), core.ErrInvalidAddress
	}
	return s.ownership.VerifyOwnership(ctx, wallet), nil
}

// Authenticate exchanges a signed challenge for a session token
func (s *AuthService) Authenticate(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if req.WalletAddress == "" || req.Signature == "" || req.Message == "" {
		return nil, core.ErrMissingFields
	}

	// Structural check first, it is cheap and needs no chain access
	if !core.ValidateChallenge(req.Message, req.WalletAddress) {
		s.logger.InfoContext(ctx, "challenge rejected", "wallet", req.WalletAddress,
			"expected", core.ChallengeMessage(req.WalletAddress))
		return nil, core.ErrInvalidMessageFormat
	}

	// The signer must be the claimed wallet
	if err := s.verifier.Verify(req.Message, req.Signature, req.WalletAddress); err != nil {
		s.logger.InfoContext(ctx, "signature rejected", "wallet", req.WalletAddress, "error", err)
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}

	verdict := s.ownership.VerifyOwnership(ctx, req.WalletAddress)
	if !verdict.HasNFT {
		return nil, &core.OwnershipError{Verdict: verdict}
	}

	token, err := s.tokenizer.IssueToken(req.WalletAddress, true)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := s.now()
	result := &AuthResult{
		User:    core.NewHolderUser(req.WalletAddress, now),
		Token:   token,
		Verdict: verdict,
	}

	event := core.LoginEvent{
		Address:      req.WalletAddress,
		Holder:       true,
		TotalBalance: verdict.TotalBalance.String(),
		IssuedAt:     now.UTC(),
	}
	if session, err := s.tokenizer.TokenToSession(token); err == nil {
		event.TokenID = session.ID
	}
	// The token is already issued, a lost event must not fail the login
	if err := s.eventPub.PublishLogin(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish login event", "wallet", req.WalletAddress, "error", err)
	}

	s.logger.InfoContext(ctx, "wallet authenticated", "wallet", req.WalletAddress, "balance", verdict.TotalBalance.String())
	return result, nil
}

// Session decodes a bearer token
func (s *AuthService) Session(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return session, nil
}
