package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc_Configured(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "", "internal.example.com,10.0.0.0/8")

	req, _ := http.NewRequest(http.MethodGet, "https://contracts.example.org/tos", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy:3128", u.Host, "https falls back to the http proxy")

	bypass, _ := http.NewRequest(http.MethodGet, "http://internal.example.com/tos", nil)
	u, err = proxy(bypass)
	require.NoError(t, err)
	assert.Nil(t, u, "no_proxy hosts must bypass the proxy")

	cidr, _ := http.NewRequest(http.MethodGet, "http://10.1.2.3/tos", nil)
	u, err = proxy(cidr)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestNewProxyFunc_SchemeSpecific(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "http://secure:8443", "")

	req, _ := http.NewRequest(http.MethodGet, "https://example.org/", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "secure:8443", u.Host)
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "Clauselens", NormalizeUserAgent("Clauselens/0.1 (+https://github.com/ppiankov/clauselens)"))
	assert.Equal(t, "bot", NormalizeUserAgent("bot"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}

func TestRobotsChecker(t *testing.T) {
	var robotsHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&robotsHits, 1)
			_, _ = w.Write([]byte("User-agent: Clauselens\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Clauselens/0.1", server.Client())
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/terms")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/contract")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.Equal(t, int32(1), atomic.LoadInt32(&robotsHits), "robots.txt should be cached per host")

	checker.Clear()
	_, _, _ = checker.CanFetch(ctx, server.URL+"/terms")
	assert.Equal(t, int32(2), atomic.LoadInt32(&robotsHits))
}

func TestRobotsChecker_MissingRobots(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("Clauselens/0.1", server.Client())
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_Unreachable(t *testing.T) {
	checker := NewRobotsChecker("Clauselens/0.1", &http.Client{Timeout: 100 * time.Millisecond})
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/terms")
	require.NoError(t, err)
	assert.True(t, allowed, "unreachable robots.txt allows the fetch")
}

func TestRobotsChecker_BadScheme(t *testing.T) {
	checker := NewRobotsChecker("Clauselens/0.1", nil)
	_, _, err := checker.CanFetch(context.Background(), "ftp://example.org/tos")
	assert.Error(t, err)
}
