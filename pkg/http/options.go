package http

import (
	"net/http"
	"time"
)

// HttpOpts configures the client built by NewConnector
type HttpOpts func(*httpConfig)

// Timeouts groups the client deadlines. Zero fields keep the defaults.
type Timeouts struct {
	Dial           time.Duration
	KeepAlive      time.Duration
	ResponseHeader time.Duration
	IdleConn       time.Duration
	Request        time.Duration
}

func (t Timeouts) merge(o Timeouts) Timeouts {
	pick := func(cur, next time.Duration) time.Duration {
		if next > 0 {
			return next
		}
		return cur
	}
	return Timeouts{
		Dial:           pick(t.Dial, o.Dial),
		KeepAlive:      pick(t.KeepAlive, o.KeepAlive),
		ResponseHeader: pick(t.ResponseHeader, o.ResponseHeader),
		IdleConn:       pick(t.IdleConn, o.IdleConn),
		Request:        pick(t.Request, o.Request),
	}
}

func WithTimeouts(t Timeouts) HttpOpts {
	return func(c *httpConfig) {
		c.timeouts = c.timeouts.merge(t)
	}
}

func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) {
		c.transports = append(c.transports, transport)
	}
}

type userAgentTransport struct {
	userAgent string
	transport http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(reqCopy)
}

// WithUserAgent stamps every outbound request with the given User-Agent
func WithUserAgent(userAgent string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &userAgentTransport{userAgent: userAgent, transport: rt}
	})
}
