package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module exposes gateway client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	if !p.Config.GatewayConfigured() {
		p.Logger.Warn("payment gateway credentials are not configured; online payments will fail")
	}
	return NewHTTPClient(Options{
		BaseURL:         p.Config.GatewayBaseURL,
		StoreID:         p.Config.GatewayStoreID,
		StorePassword:   p.Config.GatewayStorePassword,
		Timeout:         p.Config.GatewayTimeout,
		CallbackBaseURL: p.Config.PublicBaseURL,
		Currency:        p.Config.Currency,
	}, p.Logger)
}
