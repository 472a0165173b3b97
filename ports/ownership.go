package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/nftgate/core"
)

// BalanceResolver reads a balanceOf view. It never fails: unreachable
// endpoints resolve to zero.
type BalanceResolver interface {
	ResolveBalance(ctx context.Context, contract, wallet common.Address) *big.Int
}

// OwnershipVerifier turns balances into a verdict
type OwnershipVerifier interface {
	VerifyOwnership(ctx context.Context, wallet string) core.OwnershipVerdict
}

// SignatureVerifier checks that a personal-message signature was made by address
type SignatureVerifier interface {
	Verify(message, signature, address string) error
}
