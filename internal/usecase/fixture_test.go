package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/pricing"
	testhelpers "github.com/polkiloo/checkout/internal/test"
	"github.com/polkiloo/checkout/internal/usecase"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	catalog   *testhelpers.CatalogStub
	orders    *testhelpers.OrderStore
	gateway   *testhelpers.GatewayStub
	checkout  *usecase.CheckoutUseCase
	reconcile *usecase.ReconcileUseCase
	admin     *usecase.OrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	calculator, err := pricing.NewCalculator(pricing.Rules{
		FreeDeliveryThreshold: decimal.NewFromInt(1000),
		FlatDeliveryFee:       decimal.NewFromInt(60),
		TaxRate:               decimal.RequireFromString("0.05"),
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	f := &fixture{
		catalog: testhelpers.NewCatalogStub(
			model.Product{Ref: "rice-5kg", Name: "Rice 5kg", Unit: "bag", Price: decimal.NewFromInt(500), Active: true},
			model.Product{Ref: "lentils-1kg", Name: "Lentils 1kg", Unit: "pcs", Price: decimal.NewFromInt(100), Active: true},
			model.Product{Ref: "tea-200g", Name: "Tea 200g", Unit: "pcs", Price: decimal.RequireFromString("999.99"), Active: true},
			model.Product{Ref: "oil-5l", Name: "Oil 5l", Unit: "pcs", Price: decimal.NewFromInt(1000), Active: true},
			model.Product{Ref: "retired", Name: "Retired", Unit: "pcs", Price: decimal.NewFromInt(10), Active: false},
		),
		orders:  testhelpers.NewOrderStore(),
		gateway: &testhelpers.GatewayStub{},
	}
	f.checkout = usecase.NewCheckoutUseCase(f.catalog, f.orders, f.gateway, calculator, logger)
	f.reconcile = usecase.NewReconcileUseCase(f.orders, f.gateway, calculator, &config.Config{Currency: "BDT"}, logger)
	f.admin = usecase.NewOrderUseCase(f.orders, logger)

	clock := func() time.Time { return fixedNow }
	f.checkout.SetClock(clock)
	f.reconcile.SetClock(clock)
	f.admin.SetClock(clock)
	return f
}

// standardCart prices to subtotal 1200, free delivery, tax 60, total 1260.
func standardCart(method model.PaymentMethod) usecase.CheckoutRequest {
	return usecase.CheckoutRequest{
		Items: []usecase.CartItem{
			{ProductRef: "rice-5kg", Quantity: 2},
			{ProductRef: "lentils-1kg", Quantity: 2},
		},
		ShippingAddress: model.Address{
			FullName: "Rahim Uddin",
			Phone:    "+8801700000000",
			Email:    "rahim@example.com",
			Line1:    "House 1, Road 2",
			City:     "Dhaka",
		},
		PaymentMethod: method,
	}
}

func (f *fixture) place(t *testing.T, payerID int64, method model.PaymentMethod) *model.Order {
	t.Helper()
	result, err := f.checkout.PlaceOrder(context.Background(), payerID, standardCart(method))
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	return result.Order
}

func (f *fixture) acceptValidation(order *model.Order, validationID string) {
	f.gateway.ValidateFn = func(_ context.Context, id string) (*model.Validation, error) {
		if id != validationID {
			return &model.Validation{Status: "INVALID_TRANSACTION", ValidationID: id}, nil
		}
		return testhelpers.ValidPayment(*order, validationID, "BDT"), nil
	}
}
