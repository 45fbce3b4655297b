package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(
		newStorage,
		func(s *Storage) repository.Factory { return s },
	),
	fx.Provide(
		func(f repository.Factory) repository.UserRepository { return f.Users() },
		func(f repository.Factory) repository.OrderRepository { return f.Orders() },
		func(f repository.Factory) repository.CatalogRepository { return f.Catalog() },
	),
	fx.Invoke(registerLifecycle),
	fx.Invoke(seedCatalog),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}

type seedParams struct {
	fx.In

	Ctx     context.Context
	Config  *config.Config
	Catalog repository.CatalogRepository
	Logger  *slog.Logger
}

func seedCatalog(p seedParams) error {
	if p.Config.CatalogFile == "" {
		return nil
	}
	n, err := LoadCatalogFile(p.Ctx, p.Catalog, p.Config.CatalogFile)
	if err != nil {
		return err
	}
	p.Logger.Info("catalog loaded", slog.String("file", p.Config.CatalogFile), slog.Int("products", n))
	return nil
}
