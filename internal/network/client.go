package network

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

// ClientConfig holds the transport timeouts and connection pool limits.
// There is no overall request timeout: Network applies one per call.
type ClientConfig struct {
	DialTimeout     time.Duration
	KeepAlive       time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

// DefaultClientConfig returns timeouts suited to small API replies and
// image downloads
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshake:        5 * time.Second,
		ResponseHeader:      10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
	}
}

// NewHTTPClient builds a client without an overall timeout; request
// timeouts are applied per call by the executor.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}

	return &http.Client{Transport: tr}
}

// executor runs requests with a per-call timeout and reads the whole body
type executor struct {
	client *http.Client
}

func (e *executor) do(ctx context.Context, req *http.Request, timeout time.Duration) (*Response, error) {
	ctxWithTimeout := ctx
	cancel := func() {}
	if timeout > 0 {
		ctxWithTimeout, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	resp, err := e.client.Do(req.WithContext(ctxWithTimeout))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Reason:     reason(resp),
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

func reason(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
