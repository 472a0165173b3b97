package core

import "time"

// Session is the identity decoded from a bearer token
type Session struct {
	ID        string    // Unique token identifier, empty for delimited tokens
	Address   string    // Wallet address as it was issued
	Holder    bool      // Whether the token was minted for an NFT holder
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // Zero when the token format carries no expiry
}

// User is the profile returned to the client after a successful login
type User struct {
	ID            string    `json:"id"`
	Address       string    `json:"address"`
	Login         string    `json:"login"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewHolderUser builds the profile of an authenticated NFT holder
func NewHolderUser(address string, now time.Time) User {
	return User{
		ID:            address,
		Address:       address,
		Login:         ShortAddress(address),
		Email:         address + "@nft.holder",
		Role:          "nft_holder",
		Status:        "active",
		WalletAddress: address,
		CreatedAt:     now.UTC(),
	}
}

// LoginEvent is published after a token has been issued
type LoginEvent struct {
	Address      string    `json:"address"`
	Holder       bool      `json:"holder"`
	TotalBalance string    `json:"total_balance"`
	TokenID      string    `json:"token_id,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}
