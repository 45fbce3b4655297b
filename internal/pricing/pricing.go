package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/domain/model"
)

var (
	ErrInvalidRules    = errors.New("invalid pricing rules")
	ErrEmptyCart       = errors.New("cart has no lines")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNegativePrice   = errors.New("unit price must not be negative")
	ErrInvalidDiscount = errors.New("discount must be between zero and the gross total")
	ErrPricingDrift    = errors.New("stored pricing differs from recomputed pricing")
)

// moneyPlaces is the number of minor-unit digits kept for every amount.
const moneyPlaces = 2

// Rules are the business constants applied to every cart.
type Rules struct {
	FreeDeliveryThreshold decimal.Decimal
	FlatDeliveryFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// Line is one cart entry with a resolved unit price.
type Line struct {
	ProductRef string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Calculator derives order totals from a cart snapshot. It holds no mutable state.
type Calculator struct {
	rules Rules
}

// NewCalculator validates rules and builds a Calculator.
func NewCalculator(rules Rules) (*Calculator, error) {
	if rules.FreeDeliveryThreshold.IsNegative() || rules.FlatDeliveryFee.IsNegative() || rules.TaxRate.IsNegative() {
		return nil, ErrInvalidRules
	}
	if rules.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: tax rate %s is not a fraction", ErrInvalidRules, rules.TaxRate)
	}
	return &Calculator{rules: rules}, nil
}

// Rules returns the constants the calculator was built with.
func (c *Calculator) Rules() Rules {
	return c.rules
}

// LineTotal returns quantity × unit price.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Calculate prices the given lines. Delivery is free when the subtotal reaches
// the threshold; tax applies to the subtotal only.
func (c *Calculator) Calculate(lines []Line, discount decimal.Decimal) (model.Pricing, error) {
	if len(lines) == 0 {
		return model.Pricing{}, ErrEmptyCart
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity < 1 {
			return model.Pricing{}, fmt.Errorf("%w: %s", ErrInvalidQuantity, line.ProductRef)
		}
		if line.UnitPrice.IsNegative() {
			return model.Pricing{}, fmt.Errorf("%w: %s", ErrNegativePrice, line.ProductRef)
		}
		subtotal = subtotal.Add(LineTotal(line.UnitPrice, line.Quantity))
	}
	subtotal = subtotal.Round(moneyPlaces)

	deliveryFee := c.rules.FlatDeliveryFee.Round(moneyPlaces)
	if subtotal.GreaterThanOrEqual(c.rules.FreeDeliveryThreshold) {
		deliveryFee = decimal.Zero
	}

	tax := subtotal.Mul(c.rules.TaxRate).Round(moneyPlaces)
	gross := subtotal.Add(deliveryFee).Add(tax)

	discount = discount.Round(moneyPlaces)
	if discount.IsNegative() || discount.GreaterThan(gross) {
		return model.Pricing{}, ErrInvalidDiscount
	}

	return model.Pricing{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		Tax:         tax,
		Discount:    discount,
		Total:       gross.Sub(discount),
	}, nil
}

// Verify recomputes the pricing of a persisted order from its frozen lines.
func (c *Calculator) Verify(order model.Order) error {
	lines := make([]Line, 0, len(order.Items))
	for _, item := range order.Items {
		if !item.LineTotal.Equal(LineTotal(item.UnitPrice, item.Quantity)) {
			return fmt.Errorf("%w: line %s", ErrPricingDrift, item.ProductRef)
		}
		lines = append(lines, Line{ProductRef: item.ProductRef, UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}

	recomputed, err := c.Calculate(lines, order.Pricing.Discount)
	if err != nil {
		return err
	}

	stored := order.Pricing
	if !recomputed.Subtotal.Equal(stored.Subtotal) ||
		!recomputed.DeliveryFee.Equal(stored.DeliveryFee) ||
		!recomputed.Tax.Equal(stored.Tax) ||
		!recomputed.Total.Equal(stored.Total) {
		return fmt.Errorf("%w: stored total %s, recomputed %s", ErrPricingDrift, stored.Total, recomputed.Total)
	}
	return nil
}
