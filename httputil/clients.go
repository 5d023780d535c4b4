package httputil

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"homesite_sync/config"
)

type Clients struct {
	Scraping *http.Client // optionally proxied, for the builder site
	API      *http.Client // direct, for the CMS
}

func NewClients(cfg config.ScraperConfig) *Clients {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
	}
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Clients{
		Scraping: &http.Client{Timeout: timeout, Transport: transport},
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}
