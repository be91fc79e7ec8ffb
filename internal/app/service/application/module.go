package application

import "go.uber.org/fx"

// Module exposes the application service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
