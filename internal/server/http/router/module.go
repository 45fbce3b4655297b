package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/app"
	"github.com/polkiloo/checkout/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(Setup, handlerFacade)

func handlerFacade(f *app.CheckoutFacade) handlers.Facade {
	return f
}
