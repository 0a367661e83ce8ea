package util

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://secure-proxy.internal:3128", "localhost,example.org")

	req, _ := http.NewRequest(http.MethodGet, "https://api.tavily.com/search", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "secure-proxy.internal:3128", u.Host)

	req, _ = http.NewRequest(http.MethodGet, "http://news.site/a", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:3128", u.Host)

	req, _ = http.NewRequest(http.MethodGet, "https://example.org/a", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	assert.Nil(t, u, "no_proxy hosts bypass the proxy")
}

func TestNewTransport(t *testing.T) {
	tr := NewTransport(ProxySettings{HTTPProxy: "http://proxy.internal:3128"}, true)
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)

	req, _ := http.NewRequest(http.MethodGet, "http://news.site/a", nil)
	u, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:3128", u.Host)

	assert.Nil(t, NewTransport(ProxySettings{}, false).TLSClientConfig)
}
