package payment

import (
	"go.uber.org/fx"

	"github.com/globalagency/payments/internal/app/service/application"
)

// Module exposes the payment coordinator via Fx.
var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Provide(func(s *application.Service) Applications { return s }),
	fx.Provide(NewService),
)
