package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultTimeout bounds each HTTP request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultWorkers is the number of concurrent downloads per source.
	DefaultWorkers = 16

	// DefaultMaxBodySize is the largest page or image accepted.
	DefaultMaxBodySize = 20 * 1024 * 1024

	// DefaultUserAgent is sent when no other User-Agent is configured.
	// Some retailer CDNs reject requests without a browser-like agent.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	maxRedirects = 10
)

// ClientConfig configures NewHTTPClient.
type ClientConfig struct {
	// Timeout is the per-request timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// Proxy is an optional SOCKS5 proxy, "host:port" or "socks5://host:port".
	Proxy string

	// UserAgent is set on every request. Empty means DefaultUserAgent.
	UserAgent string

	// Headers are set on every request.
	Headers map[string]string
}

// NewHTTPClient creates the HTTP client shared by the scraper and the fetcher.
func NewHTTPClient(cfg ClientConfig) (*http.Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport type %T", http.DefaultTransport)
	}
	transport = transport.Clone()
	transport.MaxIdleConnsPerHost = DefaultWorkers

	if cfg.Proxy != "" {
		addr, err := parseProxyAddress(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, address string) (net.Conn, error) {
				return dialer.Dial(network, address)
			}
		}
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if _, ok := headers["User-Agent"]; !ok {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:    transport,
			headers: headers,
		},
		Timeout: cfg.Timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// parseProxyAddress accepts "host:port" or "socks5://host:port".
func parseProxyAddress(raw string) (string, error) {
	addr := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "socks5" && u.Scheme != "socks5h") {
			return "", fmt.Errorf("%w: %q", ErrInvalidProxyAddress, raw)
		}
		addr = u.Host
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidProxyAddress, raw)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("%w: %q", ErrInvalidProxyAddress, raw)
	}
	return addr, nil
}

// headerInjectingTransport sets fixed headers on every request, including
// redirects.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		if clone.Header.Get(key) == "" {
			clone.Header.Set(key, value)
		}
	}
	return t.base.RoundTrip(clone)
}

// applySourceHeaders sets the per-source cookie and headers on req.
func applySourceHeaders(req *http.Request, cookie string, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if cookie == "" {
		return
	}
	if existing := req.Header.Get("Cookie"); existing != "" {
		req.Header.Set("Cookie", existing+"; "+cookie)
		return
	}
	req.Header.Set("Cookie", cookie)
}
