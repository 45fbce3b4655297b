package handlers

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/usecase"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toCheckoutRequest(req dto.CheckoutRequest) usecase.CheckoutRequest {
	return usecase.CheckoutRequest{
		Items: lo.Map(req.Items, func(item dto.CartItem, _ int) usecase.CartItem {
			return usecase.CartItem{ProductRef: item.ProductRef, Quantity: item.Quantity}
		}),
		ShippingAddress: model.Address(req.ShippingAddress),
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		CustomerNotes:   req.CustomerNotes,
	}
}

func toSummaryResponse(s model.OrderSummary, _ int) dto.OrderSummaryResponse {
	return dto.OrderSummaryResponse{
		OrderID:       s.OrderID,
		Total:         money(s.Total),
		Status:        string(s.Status),
		PaymentMethod: string(s.PaymentMethod),
		PaymentStatus: string(s.PaymentStatus),
		CreatedAt:     s.CreatedAt,
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderID: o.OrderID,
		Status:  string(o.Status),
		Items: lo.Map(o.Items, func(item model.LineItem, _ int) dto.LineItemResponse {
			return dto.LineItemResponse{
				ProductRef:  item.ProductRef,
				ProductName: item.ProductName,
				Unit:        item.Unit,
				Quantity:    item.Quantity,
				UnitPrice:   money(item.UnitPrice),
				LineTotal:   money(item.LineTotal),
			}
		}),
		Pricing: dto.PricingResponse{
			Subtotal:    money(o.Pricing.Subtotal),
			DeliveryFee: money(o.Pricing.DeliveryFee),
			Tax:         money(o.Pricing.Tax),
			Discount:    money(o.Pricing.Discount),
			Total:       money(o.Pricing.Total),
		},
		ShippingAddress: dto.Address(o.ShippingAddress),
		CustomerNotes:   o.CustomerNotes,
		Note:            o.Note,
		Payment: dto.PaymentResponse{
			Method:        string(o.Payment.Method),
			Status:        string(o.Payment.Status),
			TransactionID: o.Payment.TransactionID,
			PaidAt:        o.Payment.PaidAt,
		},
		History: lo.Map(o.History, func(e model.StatusEntry, _ int) dto.StatusEntryResponse {
			return dto.StatusEntryResponse{Status: string(e.Status), Timestamp: e.Timestamp, Note: e.Note}
		}),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.Payment.Session != nil && o.Payment.Status == model.PaymentStatusPending {
		resp.Payment.PaymentURL = o.Payment.Session.RedirectURL
	}
	return resp
}
