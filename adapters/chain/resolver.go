// Package chain reads NFT balances from EVM JSON-RPC endpoints.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/layer-3/nftgate/internal/metrics"
	"github.com/layer-3/nftgate/ports"
)

// DefaultTimeout bounds a single eth_call on one endpoint
const DefaultTimeout = 10 * time.Second

// balanceOfSelector is keccak256("balanceOf(address)")[:4]
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// BalanceOfCallData ABI-encodes balanceOf(wallet): selector followed by the
// address left-padded to 32 bytes.
func BalanceOfCallData(wallet common.Address) []byte {
	data := make([]byte, 0, 4+32)
	data = append(data, balanceOfSelector...)
	return append(data, common.LeftPadBytes(wallet.Bytes(), 32)...)
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

type endpoint struct {
	label  string
	client *gethrpc.Client
}

// BalanceResolver queries balanceOf over an ordered list of endpoints and
// returns the first answer.
type BalanceResolver struct {
	endpoints []endpoint
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

var _ ports.BalanceResolver = (*BalanceResolver)(nil)

// NewBalanceResolver dials every endpoint. HTTP dialing does no I/O, so an
// error here means a malformed URL.
func NewBalanceResolver(ctx context.Context, urls []string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) (*BalanceResolver, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one rpc endpoint is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{}
	r := &BalanceResolver{timeout: timeout, logger: logger, metrics: m}
	for _, raw := range urls {
		client, err := gethrpc.DialOptions(ctx, raw, gethrpc.WithHTTPClient(httpClient))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
		}
		r.endpoints = append(r.endpoints, endpoint{label: endpointLabel(raw), client: client})
	}
	return r, nil
}

// ResolveBalance returns the balance reported by the first endpoint that
// answers without error, even when it is zero. If every endpoint fails the
// balance is zero: an unreachable chain never grants access.
func (r *BalanceResolver) ResolveBalance(ctx context.Context, contract, wallet common.Address) *big.Int {
	for _, ep := range r.endpoints {
		balance, err := r.balanceOf(ctx, ep, contract, wallet)
		if err == nil {
			return balance
		}

		r.logger.WarnContext(ctx, "rpc endpoint failed", "endpoint", ep.label, "contract", contract.Hex(), "error", err)
		r.metrics.RPCFailure(ep.label)

		if ctx.Err() != nil {
			break
		}
	}
	return new(big.Int)
}

func (r *BalanceResolver) balanceOf(ctx context.Context, ep endpoint, contract, wallet common.Address) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var result hexutil.Bytes
	args := callArgs{To: contract, Data: BalanceOfCallData(wallet)}
	if err := ep.client.CallContext(callCtx, &result, "eth_call", args, "latest"); err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	if len(result) > 32 {
		return nil, fmt.Errorf("unexpected balanceOf result length %d", len(result))
	}
	return new(big.Int).SetBytes(result), nil
}

// Close releases the underlying RPC clients
func (r *BalanceResolver) Close() {
	for _, ep := range r.endpoints {
		ep.client.Close()
	}
}

// endpointLabel keeps scheme and host only, dropping paths and credentials
func endpointLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Scheme + "://" + u.Host
}
