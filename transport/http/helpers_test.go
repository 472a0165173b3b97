package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/nftgate/adapters/events"
	"github.com/layer-3/nftgate/adapters/signature"
	"github.com/layer-3/nftgate/adapters/store"
	"github.com/layer-3/nftgate/adapters/tokenizer"
	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/internal/config"
	"github.com/layer-3/nftgate/internal/logging"
	"github.com/layer-3/nftgate/service"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testContract = common.HexToAddress("0x8cf392D33050F96cF6D0748486490d3dEae52564")

type stubResolver map[common.Address]int64

func (s stubResolver) ResolveBalance(_ context.Context, _, wallet common.Address) *big.Int {
	return big.NewInt(s[wallet])
}

type testGate struct {
	router    *gin.Engine
	balances  stubResolver
	tokenizer *tokenizer.JWTTokenizer
	limiter   *service.RateLimiter
}

type gateOptions struct {
	secret   string
	upstream string
}

func newTestGate(t *testing.T, opts gateOptions) *testGate {
	t.Helper()

	balances := stubResolver{}
	ownership := service.NewOwnershipService([]service.Network{{
		Name:     "Base Mainnet",
		ChainID:  8453,
		Contract: testContract,
		Resolver: balances,
	}}, logging.Discard(), nil)

	tok := tokenizer.NewJWTTokenizer(opts.secret, "nftgate", time.Hour)
	auth := service.NewAuthService(ownership, signature.NewPersonalVerifier(), tok, events.NopPublisher{}, logging.Discard())

	holderStore := store.NewMemoryStore(0)
	regularStore := store.NewMemoryStore(0)
	t.Cleanup(func() {
		holderStore.Close()
		regularStore.Close()
	})
	limiter := service.NewRateLimiter(
		holderStore, core.RateLimit{Max: 30, Window: 24 * time.Hour},
		regularStore, core.RateLimit{Max: 5, Window: 24 * time.Hour},
		logging.Discard(), nil,
	)

	manifest := config.Default().Manifest
	manifest.AccountAssociation = config.AccountAssociation{Header: "h", Payload: "p", Signature: "s"}

	router, err := SetupRouter(RouterOptions{
		Auth:        auth,
		Limiter:     limiter,
		Manifest:    manifest,
		UpstreamURL: opts.upstream,
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)

	return &testGate{router: router, balances: balances, tokenizer: tok, limiter: limiter}
}

type testWallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newTestWallet(t *testing.T) testWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testWallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

func (w testWallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func (w testWallet) loginBody(t *testing.T) map[string]string {
	message := core.ChallengeMessage(w.address)
	return map[string]string{
		"walletAddress": w.address,
		"signature":     w.sign(t, message),
		"message":       message,
	}
}

func (g *testGate) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
