package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
// An HTTP proxy alone also serves HTTPS requests. noProxy follows the
// NO_PROXY syntax (hosts, domains, IPs, CIDRs, optional ports, "*").
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	cfg := httpproxy.FromEnvironment()
	if httpProxy != "" {
		cfg.HTTPProxy = httpProxy
		if httpsProxy == "" {
			cfg.HTTPSProxy = httpProxy
		}
	}
	if httpsProxy != "" {
		cfg.HTTPSProxy = httpsProxy
	}
	if noProxy != "" {
		cfg.NoProxy = noProxy
	}

	proxyFor := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxyFor(req.URL)
	}
}

// NewTransport returns an HTTP transport using NewProxyFunc
func NewTransport(httpProxy, httpsProxy, noProxy string) *http.Transport {
	return &http.Transport{
		Proxy: NewProxyFunc(httpProxy, httpsProxy, noProxy),
	}
}
