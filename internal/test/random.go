package test

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// RandomLogin returns a unique-looking account login.
func RandomLogin() string {
	return gofakeit.Username() + gofakeit.DigitN(4)
}

// RandomPassword returns a password accepted by the bcrypt hasher.
func RandomPassword() string {
	return gofakeit.Password(true, true, true, false, false, 12)
}

// RandomAddress returns a complete shipping address.
func RandomAddress() model.Address {
	return model.Address{
		FullName:   gofakeit.Name(),
		Phone:      gofakeit.Phone(),
		Email:      gofakeit.Email(),
		Line1:      gofakeit.Street(),
		City:       gofakeit.City(),
		PostalCode: gofakeit.Zip(),
		Country:    gofakeit.Country(),
	}
}

// RandomPrice returns a non-negative price with two decimal places.
func RandomPrice(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(gofakeit.Price(min, max)).Round(2)
}

// RandomProduct returns an active catalog product.
func RandomProduct() model.Product {
	return model.Product{
		Ref:    gofakeit.UUID(),
		Name:   gofakeit.ProductName(),
		Unit:   "pcs",
		Price:  RandomPrice(1, 2000),
		Active: true,
	}
}
