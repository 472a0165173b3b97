package http

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Headers set on proxied requests
const (
	UpstreamWalletHeader = "X-NFTGate-Wallet"
	UpstreamHolderHeader = "X-NFTGate-Holder"
)

// NewOSINTProxy forwards requests below stripPrefix to target
func NewOSINTProxy(target *url.URL, stripPrefix string, logger *slog.Logger) *httputil.ReverseProxy {
	basePath := strings.TrimSuffix(stripPrefix, "/")
	proxy := &httputil.ReverseProxy{}
	proxy.Director = func(req *http.Request) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.Host = target.Host
		path := req.URL.Path
		if basePath != "" && strings.HasPrefix(path, basePath) {
			path = strings.TrimPrefix(path, basePath)
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		req.URL.Path = singleJoiningSlash(target.Path, path)
		req.URL.RawPath = ""
		if target.RawQuery != "" && req.URL.RawQuery != "" {
			req.URL.RawQuery = target.RawQuery + "&" + req.URL.RawQuery
		} else if target.RawQuery != "" {
			req.URL.RawQuery = target.RawQuery
		}
		// The delimited token embeds the session secret
		req.Header.Del("Authorization")
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.ErrorContext(r.Context(), "osint proxy error", "path", r.URL.Path, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Upstream error"}`))
	}
	return proxy
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}

// OSINTHandler wraps the proxy for gin. A nil proxy answers 503.
func OSINTHandler(proxy *httputil.ReverseProxy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if proxy == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OSINT upstream is not configured"})
			return
		}

		c.Request.Header.Del(UpstreamWalletHeader)
		c.Request.Header.Del(UpstreamHolderHeader)
		if id, ok := identityFrom(c); ok {
			c.Request.Header.Set(UpstreamWalletHeader, id.Wallet)
			c.Request.Header.Set(UpstreamHolderHeader, strconv.FormatBool(id.Holder))
		}

		proxy.ServeHTTP(c.Writer, c.Request)
	}
}
