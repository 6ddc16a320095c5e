package network

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ProxyProvider provides proxy configuration.
type ProxyProvider interface {
	GetProxyURL(ctx context.Context) string
}

// StaticProxy is a ProxyProvider backed by a fixed URL. Empty means direct.
type StaticProxy string

func (p StaticProxy) GetProxyURL(context.Context) string {
	return strings.TrimSpace(string(p))
}

// ClientFactory creates HTTP clients for outbound calls (model endpoints,
// tracking server) with proxy configuration.
type ClientFactory struct {
	proxyProvider ProxyProvider
}

// NewClientFactory creates a new client factory. A nil provider means no proxy.
func NewClientFactory(proxyProvider ProxyProvider) *ClientFactory {
	if proxyProvider == nil {
		proxyProvider = StaticProxy("")
	}
	return &ClientFactory{proxyProvider: proxyProvider}
}

// NewHTTPClient creates a standard http.Client with proxy configuration.
// It returns nil when no proxy is configured so SDK clients keep their own
// defaults.
func (f *ClientFactory) NewHTTPClient(ctx context.Context, timeout time.Duration) *http.Client {
	proxyURL := f.proxyProvider.GetProxyURL(ctx)
	if proxyURL == "" {
		return nil
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransportWithProxy(proxyURL),
	}
}

// newTransportWithProxy creates an http.Transport with proper proxy support.
// For SOCKS5 proxies, it uses golang.org/x/net/proxy for correct handling.
// For HTTP/HTTPS proxies, it uses the standard http.ProxyURL.
func newTransportWithProxy(proxyURL string) *http.Transport {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return &http.Transport{}
	}

	if strings.HasPrefix(parsed.Scheme, "socks") {
		var auth *proxy.Auth
		if parsed.User != nil {
			auth = &proxy.Auth{
				User: parsed.User.Username(),
			}
			if password, ok := parsed.User.Password(); ok {
				auth.Password = password
			}
		}

		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return &http.Transport{}
		}

		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	}

	return &http.Transport{
		Proxy: http.ProxyURL(parsed),
	}
}
