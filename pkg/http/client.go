package http

import (
	"net"
	"net/http"
	"time"
)

// TransportFunc decorates a RoundTripper
type TransportFunc func(http.RoundTripper) http.RoundTripper

type httpConfig struct {
	timeouts   Timeouts
	transports []TransportFunc
}

var defaultTimeouts = Timeouts{
	Dial:           10 * time.Second,
	KeepAlive:      90 * time.Second,
	ResponseHeader: 25 * time.Second,
	IdleConn:       90 * time.Second,
	Request:        30 * time.Second,
}

func newClient(opts ...HttpOpts) *http.Client {
	cfg := &httpConfig{timeouts: defaultTimeouts}
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.timeouts.Dial,
		KeepAlive: cfg.timeouts.KeepAlive,
	}

	// A single workflow host is called, so a small idle pool is enough
	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          8,
		MaxIdleConnsPerHost:   4,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.timeouts.ResponseHeader,
		IdleConnTimeout:       cfg.timeouts.IdleConn,
	}

	// Decorators wrap in registration order, the last one runs first
	for _, wrap := range cfg.transports {
		transport = wrap(transport)
	}

	return &http.Client{
		Timeout:   cfg.timeouts.Request,
		Transport: transport,
	}
}
