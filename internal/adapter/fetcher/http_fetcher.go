// Package fetcher streams images over HTTP, optionally through a local SOCKS5 proxy.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/proxy"

	"github.com/user/illust-harvester/internal/repository"
)

// UserAgentSource supplies the User-Agent header per request.
type UserAgentSource interface {
	Next() string
}

// HTTPFetcher implements repository.Fetcher with resty. One client is kept
// per proxy route so connections are reused across attempts.
type HTTPFetcher struct {
	referer string
	agents  UserAgentSource

	mu      sync.Mutex
	clients map[string]*resty.Client
}

// NewHTTPFetcher creates an HTTPFetcher sending referer on every request.
func NewHTTPFetcher(referer string, agents UserAgentSource) *HTTPFetcher {
	return &HTTPFetcher{referer: referer, agents: agents, clients: make(map[string]*resty.Client)}
}

func (f *HTTPFetcher) client(p repository.ProxyConfig) (*resty.Client, error) {
	key := "direct"
	if p.Enabled {
		key = "socks5:" + p.Port
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[key]; ok {
		return c, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if p.Enabled {
		dialer, err := proxy.SOCKS5("tcp", net.JoinHostPort("localhost", p.Port), nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create socks5 dialer: %w", err)
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer does not support contexts")
		}
		transport.Proxy = nil
		transport.DialContext = cd.DialContext
	}

	c := resty.New().
		SetTransport(transport).
		SetHeader("Referer", f.referer)
	f.clients[key] = c
	return c, nil
}

// FetchToFile streams url into destPath. Non-2xx answers return
// repository.ErrUnexpectedStatus and leave no file behind.
func (f *HTTPFetcher) FetchToFile(ctx context.Context, url, destPath string, p repository.ProxyConfig, timeout time.Duration) error {
	c, err := f.client(p)
	if err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := c.R().SetContext(ctx).SetDoNotParseResponse(true)
	if f.agents != nil {
		req.SetHeader("User-Agent", f.agents.Next())
	}
	resp, err := req.Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("%w: %d from %s", repository.ErrUnexpectedStatus, resp.StatusCode(), url)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return file.Close()
}
