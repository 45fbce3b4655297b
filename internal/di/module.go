package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	"github.com/polkiloo/checkout/internal/app"
	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/logger"
	"github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/pricing"
	"github.com/polkiloo/checkout/internal/server/http/router"
	"github.com/polkiloo/checkout/internal/storage/postgres"
	"github.com/polkiloo/checkout/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		gateway.Module,
		pricing.Module,
		usecase.Module,
		fx.Provide(func(s *postgres.Storage) app.HealthChecker { return s }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
