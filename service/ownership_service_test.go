package service

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/nftgate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holderWallet = "0x00000000000000000000000000000000DeaDBeef"

var baseContract = common.HexToAddress("0x8cf392D33050F96cF6D0748486490d3dEae52564")

type fakeResolver struct {
	balances map[common.Address]int64
	panics   bool
	calls    int
}

func (f *fakeResolver) ResolveBalance(_ context.Context, _, wallet common.Address) *big.Int {
	f.calls++
	if f.panics {
		panic("resolver exploded")
	}
	return big.NewInt(f.balances[wallet])
}

func newOwnership(resolvers ...*fakeResolver) *OwnershipService {
	networks := make([]Network, 0, len(resolvers))
	for i, r := range resolvers {
		name := "Base Mainnet"
		if i > 0 {
			name = "Network " + string(rune('A'+i))
		}
		networks = append(networks, Network{Name: name, ChainID: 8453 + uint64(i), Contract: baseContract, Resolver: r})
	}
	return NewOwnershipService(networks, logging.Discard(), nil)
}

func TestVerifyOwnershipZeroBalance(t *testing.T) {
	verdict := newOwnership(&fakeResolver{}).VerifyOwnership(context.Background(), holderWallet)

	assert.False(t, verdict.HasNFT)
	assert.Equal(t, 0, verdict.TotalBalance.Sign())
	assert.NotNil(t, verdict.PerNetwork)
	assert.Empty(t, verdict.PerNetwork)
}

func TestVerifyOwnershipHolder(t *testing.T) {
	r := &fakeResolver{balances: map[common.Address]int64{common.HexToAddress(holderWallet): 2}}

	verdict := newOwnership(r).VerifyOwnership(context.Background(), holderWallet)

	require.True(t, verdict.HasNFT)
	assert.Equal(t, int64(2), verdict.TotalBalance.Int64())
	require.Len(t, verdict.PerNetwork, 1)
	nb := verdict.PerNetwork[0]
	assert.Equal(t, "Base Mainnet", nb.Network)
	assert.Equal(t, uint64(8453), nb.ChainID)
	assert.Equal(t, int64(2), nb.Balance.Int64())
	assert.Equal(t, "2", nb.DisplayBalance.String())
	assert.Equal(t, baseContract.Hex(), nb.ContractAddress)
}

func TestVerifyOwnershipAcrossNetworks(t *testing.T) {
	addr := common.HexToAddress(holderWallet)
	first := &fakeResolver{}
	second := &fakeResolver{balances: map[common.Address]int64{addr: 1}}
	third := &fakeResolver{balances: map[common.Address]int64{addr: 4}}

	verdict := newOwnership(first, second, third).VerifyOwnership(context.Background(), holderWallet)

	assert.True(t, verdict.HasNFT)
	assert.Equal(t, int64(5), verdict.TotalBalance.Int64())
	assert.Len(t, verdict.PerNetwork, 2)
	assert.Equal(t, 1, first.calls)
}

func TestVerifyOwnershipRecoversFromPanic(t *testing.T) {
	verdict := newOwnership(&fakeResolver{panics: true}).VerifyOwnership(context.Background(), holderWallet)

	assert.False(t, verdict.HasNFT)
	assert.Empty(t, verdict.PerNetwork)
	assert.Equal(t, 0, verdict.TotalBalance.Sign())
}

func TestVerifyOwnershipInvalidAddress(t *testing.T) {
	r := &fakeResolver{}

	verdict := newOwnership(r).VerifyOwnership(context.Background(), "not-a-wallet")

	assert.False(t, verdict.HasNFT)
	assert.Zero(t, r.calls)
}
