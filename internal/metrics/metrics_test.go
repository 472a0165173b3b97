package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New("test")
	m.ObserveRequest("/api/auth/verify-nft", http.MethodPost, http.StatusOK, 20*time.Millisecond)
	m.RPCFailure("https://mainnet.base.org")
	m.Verification(true)
	m.RateLimit("holder", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, `test_http_requests_total{method="POST",route="/api/auth/verify-nft",status="200"} 1`)
	assert.Contains(t, out, `test_rpc_endpoint_failures_total{endpoint="https://mainnet.base.org"} 1`)
	assert.Contains(t, out, `test_ownership_verifications_total{has_nft="true"} 1`)
	assert.Contains(t, out, `test_rate_limit_decisions_total{allowed="false",class="holder"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Second)
	m.RPCFailure("x")
	m.Verification(false)
	m.RateLimit("regular", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
