package service

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/internal/metrics"
	"github.com/layer-3/nftgate/ports"
)

// Network is one chain/contract pair checked for ownership
type Network struct {
	Name     string
	ChainID  uint64
	Contract common.Address
	Decimals int32
	Resolver ports.BalanceResolver
}

// OwnershipService converts raw balances into ownership verdicts
type OwnershipService struct {
	networks []Network
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

var _ ports.OwnershipVerifier = (*OwnershipService)(nil)

// NewOwnershipService creates a new ownership service
func NewOwnershipService(networks []Network, logger *slog.Logger, m *metrics.Metrics) *OwnershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipService{
		networks: networks,
		logger:   logger,
		metrics:  m,
	}
}

// VerifyOwnership checks every configured network. It never fails: anything
// unexpected yields the zero verdict.
func (s *OwnershipService) VerifyOwnership(ctx context.Context, wallet string) (verdict core.OwnershipVerdict) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "ownership verification panicked", "wallet", wallet, "panic", r)
			verdict = core.ZeroVerdict()
		}
		s.metrics.Verification(verdict.HasNFT)
	}()

	if !core.IsAddress(wallet) {
		return core.ZeroVerdict()
	}
	addr := common.HexToAddress(wallet)

	balances := make([]core.NetworkBalance, 0, len(s.networks))
	for _, n := range s.networks {
		balance := n.Resolver.ResolveBalance(ctx, n.Contract, addr)
		balances = append(balances, core.NetworkBalance{
			Network:         n.Name,
			ChainID:         n.ChainID,
			Balance:         balance,
			DisplayBalance:  core.ScaleBalance(balance, n.Decimals),
			ContractAddress: n.Contract.Hex(),
		})
	}

	verdict = core.NewVerdict(balances)
	s.logger.DebugContext(ctx, "ownership verified", "wallet", wallet, "has_nft", verdict.HasNFT, "total", verdict.TotalBalance.String())
	return verdict
}
