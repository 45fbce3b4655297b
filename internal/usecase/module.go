package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewCheckoutUseCase,
		NewReconcileUseCase,
		NewOrderUseCase,
		providePaymentGateway,
	),
)

func providePaymentGateway(client gateway.Client) PaymentGateway {
	return client
}
