package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects matches the net/http default.
const maxRedirects = 10

// RedirectGuard vets every redirect target before it is followed.
type RedirectGuard func(target string) error

// NewHTTPClient builds the client used for fetches. HTTP(S)_PROXY is
// honored by the transport and ALL_PROXY (including socks5) by the dialer,
// both subject to NO_PROXY. A nil guard follows every redirect.
func NewHTTPClient(timeout time.Duration, guard RedirectGuard) *http.Client {
	direct := &net.Dialer{Timeout: timeout}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialContext(direct),
			TLSHandshakeTimeout: timeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			if guard == nil {
				return nil
			}
			if err := guard(req.URL.String()); err != nil {
				return fmt.Errorf("%w: %w", ErrRedirectBlocked, err)
			}
			return nil
		},
	}
}

func dialContext(direct *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := proxy.FromEnvironmentUsing(direct)
		if cd, ok := d.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return d.Dial(network, addr)
	}
}
