package core

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// NetworkBalance is the NFT balance found on one network
type NetworkBalance struct {
	Network         string          `json:"name"`
	ChainID         uint64          `json:"chainId"`
	Balance         *big.Int        `json:"balance"`
	DisplayBalance  decimal.Decimal `json:"displayBalance"`
	ContractAddress string          `json:"contractAddress"`
}

// OwnershipVerdict is the outcome of an ownership check. It is rebuilt on every request.
type OwnershipVerdict struct {
	HasNFT       bool             `json:"hasNFT"`
	TotalBalance *big.Int         `json:"totalBalance"`
	PerNetwork   []NetworkBalance `json:"networks"`
}

// ZeroVerdict is the fail-closed verdict
func ZeroVerdict() OwnershipVerdict {
	return OwnershipVerdict{
		HasNFT:       false,
		TotalBalance: new(big.Int),
		PerNetwork:   []NetworkBalance{},
	}
}

// NewVerdict folds per-network balances into a verdict. Only positive balances
// are kept in PerNetwork.
func NewVerdict(balances []NetworkBalance) OwnershipVerdict {
	verdict := ZeroVerdict()
	for _, b := range balances {
		if b.Balance == nil || b.Balance.Sign() <= 0 {
			continue
		}
		verdict.TotalBalance.Add(verdict.TotalBalance, b.Balance)
		verdict.PerNetwork = append(verdict.PerNetwork, b)
	}
	verdict.HasNFT = verdict.TotalBalance.Sign() > 0
	return verdict
}

// ScaleBalance renders a raw token balance with the given number of decimals
func ScaleBalance(balance *big.Int, decimals int32) decimal.Decimal {
	if balance == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(balance, -decimals)
}
