package core

import "errors"

var (
	ErrTokenExpired         = errors.New("token has expired")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrInvalidAddress       = errors.New("invalid wallet address")
	ErrInvalidMessageFormat = errors.New("invalid message format")
	ErrMissingFields        = errors.New("wallet address, signature, and message are required")
	ErrMissingSecret        = errors.New("session secret is not configured")
	ErrNoNFT                = errors.New("wallet does not hold the required NFT")
)

// OwnershipError is returned when a wallet proved key possession but holds no NFT.
// It carries the verdict so callers can report per-network details.
type OwnershipError struct {
	Verdict OwnershipVerdict
}

func (e *OwnershipError) Error() string {
	return ErrNoNFT.Error()
}

func (e *OwnershipError) Unwrap() error {
	return ErrNoNFT
}
