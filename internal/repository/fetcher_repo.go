package repository

import (
	"context"
	"errors"
	"time"
)

// ErrUnexpectedStatus is returned when the remote host answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// ProxyConfig routes fetches through a local SOCKS5 endpoint when Enabled.
type ProxyConfig struct {
	Enabled bool
	Port    string
}

// Fetcher streams a remote resource to a local file.
type Fetcher interface {
	// FetchToFile writes the body of url to destPath incrementally. The whole
	// call, including the body copy, is bounded by timeout.
	FetchToFile(ctx context.Context, url, destPath string, proxy ProxyConfig, timeout time.Duration) error
}
