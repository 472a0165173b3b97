package ports

import "github.com/layer-3/nftgate/core"

// Tokenizer mints and reads session tokens
type Tokenizer interface {
	// IssueToken mints a bearer token for the wallet
	IssueToken(address string, holder bool) (string, error)

	// ExtractWallet returns the wallet embedded in the token, if any
	ExtractWallet(token string) (string, bool)

	// IsHolderToken reports whether the token was minted for an NFT holder
	IsHolderToken(token string) bool

	// TokenToSession verifies the token and decodes its identity
	TokenToSession(token string) (*core.Session, error)
}
