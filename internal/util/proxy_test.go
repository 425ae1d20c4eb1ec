package util

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyFor(t *testing.T, proxy func(*http.Request) (*url.URL, error), rawURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	u, err := proxy(req)
	require.NoError(t, err)
	if u == nil {
		return ""
	}
	return u.String()
}

func TestNewProxyFunc_SchemeSelection(t *testing.T) {
	t.Setenv("NO_PROXY", "")
	t.Setenv("no_proxy", "")
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "")

	assert.Equal(t, "http://proxy:3128", proxyFor(t, proxy, "http://checklists.local/c.json"))
	assert.Equal(t, "http://secure-proxy:3128", proxyFor(t, proxy, "https://api.openai.com/v1"))
}

func TestNewProxyFunc_HTTPProxyServesHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "", "")
	assert.Equal(t, "http://proxy:3128", proxyFor(t, proxy, "https://api.anthropic.com"))
}

func TestNewProxyFunc_NoProxy(t *testing.T) {
	t.Setenv("NO_PROXY", "")
	t.Setenv("no_proxy", "")
	proxy := NewProxyFunc("http://proxy:3128", "", "checklists.local, .internal.example, ollama:11434, 10.0.0.0/8")

	tests := []struct {
		url    string
		direct bool
	}{
		{"http://localhost:11434/api/generate", true},
		{"http://checklists.local/c.json", true},
		{"http://eu.checklists.local/c.json", true},
		{"http://docs.internal.example/c.yaml", true},
		{"http://internal.example/c.yaml", false},
		{"http://ollama:11434/api/generate", true},
		{"http://gpu.ollama:11434/api/generate", true},
		{"http://ollama:8080/api/generate", false},
		{"http://10.1.2.3/checklist.json", true},
		{"https://api.openai.com/v1", false},
		{"http://notchecklists.local/", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := proxyFor(t, proxy, tt.url)
			if tt.direct {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, "http://proxy:3128", got)
			}
		})
	}
}

func TestNewProxyFunc_NoProxyFromEnvironment(t *testing.T) {
	t.Setenv("NO_PROXY", "checklists.local")
	t.Setenv("no_proxy", "checklists.local")
	proxy := NewProxyFunc("http://proxy:3128", "", "")

	assert.Empty(t, proxyFor(t, proxy, "http://checklists.local/c.json"))
	assert.Equal(t, "http://proxy:3128", proxyFor(t, proxy, "http://example.com/c.json"))
}

func TestNewProxyFunc_Wildcard(t *testing.T) {
	t.Setenv("NO_PROXY", "")
	proxy := NewProxyFunc("http://proxy:3128", "", "*")
	assert.Empty(t, proxyFor(t, proxy, "https://api.openai.com"))
}

func TestNewTransport(t *testing.T) {
	tr := NewTransport("http://proxy:3128", "", "")
	require.NotNil(t, tr.Proxy)
}
