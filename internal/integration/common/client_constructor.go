package common

import (
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	pkgHTTP "github.com/UnsureAboli/telegram-n8n-video-bot/pkg/http"
	"go.uber.org/zap"
)

const userAgent = "telegram-n8n-video-bot/1.0"

// NewBaseConnector builds a JSON connector for an outbound service: timeouts and bearer token come from cfg
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	return pkgHTTP.NewConnector(
		&pkgHTTP.ConnectorConfig{Logger: logger, BaseURL: cfg.Url},
		pkgHTTP.WithTimeouts(pkgHTTP.Timeouts{
			Dial:           cfg.ConnTimeout,
			KeepAlive:      cfg.KeepAlive,
			ResponseHeader: cfg.ResponseHeaderTimeout,
			IdleConn:       cfg.IdleConnTimeout,
			Request:        cfg.RequestTimeout,
		}),
		pkgHTTP.WithUserAgent(userAgent),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	)
}
