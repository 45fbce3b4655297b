package pricing

import (
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module provides the pricing calculator configured from application settings.
var Module = fx.Provide(newCalculator)

type calculatorParams struct {
	fx.In

	Config *config.Config
}

func newCalculator(p calculatorParams) (*Calculator, error) {
	return NewCalculator(Rules{
		FreeDeliveryThreshold: p.Config.FreeDeliveryThreshold,
		FlatDeliveryFee:       p.Config.DeliveryFee,
		TaxRate:               p.Config.TaxRate,
	})
}
