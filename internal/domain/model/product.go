package model

import "github.com/shopspring/decimal"

// Product is the catalog view the checkout reads prices from.
type Product struct {
	Ref    string
	Name   string
	Unit   string
	Price  decimal.Decimal
	Active bool
}
