package clickpesa

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/globalagency/payments/pkg/config"
)

func newFromConfig(cfg *config.Config, log *zap.SugaredLogger) (*Client, error) {
	return New(&cfg.ClickPesa, log)
}

// Module exposes the gateway client via Fx.
var Module = fx.Options(
	fx.Provide(newFromConfig),
)
