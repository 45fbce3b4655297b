package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	pkgAuth "github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
	"github.com/polkiloo/checkout/internal/statemachine"
	testhelpers "github.com/polkiloo/checkout/internal/test"
	"github.com/polkiloo/checkout/internal/usecase"
)

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, route, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asUser(id int64) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, id)
		c.Set(middleware.ClaimsContextKey, pkgAuth.Claims{UserID: id, Role: model.RoleCustomer})
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}
	if _, ok := CurrentClaims(c); ok {
		t.Fatal("expected no claims")
	}

	asUser(42)(c)
	if got := CurrentUserID(c); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if claims, ok := CurrentClaims(c); !ok || claims.UserID != 42 {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	login := testhelpers.RandomLogin()
	password := testhelpers.RandomPassword()
	body, _ := json.Marshal(dto.RegisterRequest{AuthRequest: dto.AuthRequest{Login: login, Password: password}, Name: "Rahim", Phone: "01700000000"})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{RegisterFn: func(_ context.Context, in usecase.RegisterInput) (string, error) {
		if in.Login != login || in.Password != password || in.Name != "Rahim" || in.Phone != "01700000000" {
			t.Errorf("unexpected input passed to facade: %+v", in)
		}
		return "issued", nil
	}})

	resp := performRequest(t, http.MethodPost, "/register", "/register", handler.Register, nil, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if resp.Header().Get("Authorization") != "Bearer issued" {
		t.Fatalf("expected auth header, got %q", resp.Header().Get("Authorization"))
	}
	var payload dto.TokenResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil || payload.Token != "issued" {
		t.Fatalf("expected token body, got %s", resp.Body.String())
	}
	result := resp.Result()
	t.Cleanup(func() { _ = result.Body.Close() })
	if cookies := result.Cookies(); len(cookies) == 0 || cookies[0].Value != "issued" {
		t.Fatalf("expected auth cookie, got %+v", cookies)
	}
}

func TestAuthHandlerRegisterFailures(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
	cases := []struct {
		name string
		body []byte
		err  error
		want int
	}{
		{"bad json", []byte("{"), nil, http.StatusBadRequest},
		{"invalid credentials", body, domainErrors.ErrInvalidCredentials, http.StatusBadRequest},
		{"duplicate", body, domainErrors.ErrAlreadyExists, http.StatusConflict},
		{"internal", body, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAuthHandler(testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, usecase.RegisterInput) (string, error) {
				return "", tc.err
			}})
			resp := performRequest(t, http.MethodPost, "/register", "/register", handler.Register, nil, tc.body, jsonHeaders)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
	resp := performRequest(t, http.MethodPost, "/login", "/login", NewAuthHandler(testhelpers.AuthFacadeStub{}).Login, nil, body, jsonHeaders)
	if resp.Code != http.StatusOK || resp.Header().Get("Authorization") == "" {
		t.Fatalf("expected authorised login, got %d", resp.Code)
	}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", domainErrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAuthHandler(testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (string, error) {
				return "", tc.err
			}})
			resp := performRequest(t, http.MethodPost, "/login", "/login", handler.Login, nil, body, jsonHeaders)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func checkoutBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(dto.CheckoutRequest{
		Items:           []dto.CartItem{{ProductRef: "rice-5kg", Quantity: 2}},
		ShippingAddress: dto.Address{FullName: "Rahim", Phone: "01700000000", Line1: "House 1", City: "Dhaka"},
		PaymentMethod:   "card",
		CustomerNotes:   "ring twice",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestCheckoutHandlerCreatesOrder(t *testing.T) {
	var got usecase.CheckoutRequest
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{PlaceFn: func(_ context.Context, payerID int64, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
		if payerID != 7 {
			t.Errorf("expected payer 7, got %d", payerID)
		}
		got = req
		return &usecase.CheckoutResult{
			Order: &model.Order{
				OrderID: "ORD-1",
				Status:  model.OrderStatusPending,
				Pricing: model.Pricing{Total: decimal.RequireFromString("1260")},
				Payment: model.PaymentInfo{Method: model.PaymentMethodCard, Status: model.PaymentStatusPending},
			},
			PaymentURL: "https://gateway.test/pay/ORD-1",
		}, nil
	}})

	resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", handler.Checkout, asUser(7), checkoutBody(t), jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload dto.CheckoutResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.OrderID != "ORD-1" || payload.PaymentURL == "" || payload.Total != "1260.00" || payload.PaymentStatus != "pending" {
		t.Fatalf("unexpected response %+v", payload)
	}
	if len(got.Items) != 1 || got.Items[0].ProductRef != "rice-5kg" || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", got.Items)
	}
	if got.ShippingAddress.City != "Dhaka" || got.PaymentMethod != model.PaymentMethodCard || got.CustomerNotes != "ring twice" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCheckoutHandlerFailures(t *testing.T) {
	cases := []struct {
		name   string
		body   []byte
		result *usecase.CheckoutResult
		err    error
		want   int
	}{
		{"bad json", []byte("["), nil, nil, http.StatusBadRequest},
		{"invalid cart", nil, nil, domainErrors.ErrInvalidCart, http.StatusBadRequest},
		{"invalid address", nil, nil, domainErrors.ErrInvalidAddress, http.StatusBadRequest},
		{"invalid method", nil, nil, domainErrors.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{"unknown product", nil, nil, fmt.Errorf("%w: ghee", domainErrors.ErrUnknownProduct), http.StatusUnprocessableEntity},
		{"storage", nil, nil, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := tc.body
			if body == nil {
				body = checkoutBody(t)
			}
			handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{PlaceFn: func(context.Context, int64, usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
				return tc.result, tc.err
			}})
			resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", handler.Checkout, asUser(1), body, jsonHeaders)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestCheckoutHandlerGatewayFailureKeepsOrderID(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{PlaceFn: func(context.Context, int64, usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
		return &usecase.CheckoutResult{Order: &model.Order{OrderID: "ORD-9"}}, fmt.Errorf("%w: network", domainErrors.ErrPaymentInitFailed)
	}})

	resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", handler.Checkout, asUser(1), checkoutBody(t), jsonHeaders)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	var payload dto.PaymentErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.OrderID != "ORD-9" || payload.Error == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestOrderHandlerList(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{OrdersFn: func(_ context.Context, payerID int64) ([]model.OrderSummary, error) {
		if payerID != 3 {
			t.Errorf("expected payer 3, got %d", payerID)
		}
		return []model.OrderSummary{{
			OrderID:       "ORD-1",
			Total:         decimal.RequireFromString("1109.99"),
			Status:        model.OrderStatusConfirmed,
			PaymentMethod: model.PaymentMethodCard,
			PaymentStatus: model.PaymentStatusCompleted,
			CreatedAt:     created,
		}}, nil
	}}, testhelpers.CheckoutFacadeStub{})

	resp := performRequest(t, http.MethodGet, "/orders", "/orders", handler.List, asUser(3), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload []dto.OrderSummaryResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 1 || payload[0].Total != "1109.99" || payload[0].PaymentStatus != "completed" || !payload[0].CreatedAt.Equal(created) {
		t.Fatalf("unexpected payload %+v", payload)
	}

	empty := NewOrderHandler(testhelpers.OrderFacadeStub{OrdersFn: func(context.Context, int64) ([]model.OrderSummary, error) {
		return nil, nil
	}}, testhelpers.CheckoutFacadeStub{})
	if resp := performRequest(t, http.MethodGet, "/orders", "/orders", empty.List, asUser(3), nil, nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	failing := NewOrderHandler(testhelpers.OrderFacadeStub{OrdersFn: func(context.Context, int64) ([]model.OrderSummary, error) {
		return nil, errors.New("boom")
	}}, testhelpers.CheckoutFacadeStub{})
	if resp := performRequest(t, http.MethodGet, "/orders", "/orders", failing.List, asUser(3), nil, nil); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestOrderHandlerGet(t *testing.T) {
	paidAt := time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)
	order := &model.Order{
		OrderID: "ORD-1",
		PayerID: 3,
		Status:  model.OrderStatusConfirmed,
		Items: []model.LineItem{{
			ProductRef: "rice-5kg", ProductName: "Rice", Unit: "bag", Quantity: 2,
			UnitPrice: decimal.RequireFromString("500"), LineTotal: decimal.RequireFromString("1000"),
		}},
		Pricing: model.Pricing{
			Subtotal: decimal.RequireFromString("1000"), DeliveryFee: decimal.Zero,
			Tax: decimal.RequireFromString("50"), Discount: decimal.Zero, Total: decimal.RequireFromString("1050"),
		},
		Payment: model.PaymentInfo{
			Method: model.PaymentMethodCard, Status: model.PaymentStatusCompleted, TransactionID: "ORD-1", PaidAt: &paidAt,
			Session: &model.GatewaySession{RedirectURL: "https://gateway.test/pay/ORD-1"},
		},
		History: []model.StatusEntry{{Status: model.OrderStatusPending}, {Status: model.OrderStatusConfirmed, Note: "payment confirmed"}},
	}
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{OrderFn: func(_ context.Context, callerID int64, orderID string) (*model.Order, error) {
		if callerID != 3 || orderID != "ORD-1" {
			t.Errorf("unexpected lookup caller=%d order=%s", callerID, orderID)
		}
		return order, nil
	}}, testhelpers.CheckoutFacadeStub{})

	resp := performRequest(t, http.MethodGet, "/order/:orderId", "/order/ORD-1", handler.Get, asUser(3), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Pricing.Total != "1050.00" || payload.Items[0].LineTotal != "1000.00" || len(payload.History) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Payment.PaymentURL != "" {
		t.Fatalf("settled payment must not expose a payment url, got %q", payload.Payment.PaymentURL)
	}
	if payload.Payment.PaidAt == nil || !payload.Payment.PaidAt.Equal(paidAt) {
		t.Fatalf("unexpected paidAt %v", payload.Payment.PaidAt)
	}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing", domainErrors.ErrNotFound, http.StatusNotFound},
		{"foreign", domainErrors.ErrForbidden, http.StatusForbidden},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewOrderHandler(testhelpers.OrderFacadeStub{OrderFn: func(context.Context, int64, string) (*model.Order, error) {
				return nil, tc.err
			}}, testhelpers.CheckoutFacadeStub{})
			resp := performRequest(t, http.MethodGet, "/order/:orderId", "/order/ORD-1", handler.Get, asUser(3), nil, nil)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestOrderHandlerRetryPayment(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{}, testhelpers.CheckoutFacadeStub{})
	resp := performRequest(t, http.MethodPost, "/order/:orderId/retry", "/order/ORD-1/retry", handler.RetryPayment, asUser(3), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload dto.RetryPaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.OrderID != "ORD-1" || payload.PaymentURL != "https://gateway.test/pay/ORD-1" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing", domainErrors.ErrNotFound, http.StatusNotFound},
		{"foreign", domainErrors.ErrForbidden, http.StatusForbidden},
		{"settled", domainErrors.ErrPaymentNotRetryable, http.StatusConflict},
		{"gateway", fmt.Errorf("%w: timeout", domainErrors.ErrPaymentInitFailed), http.StatusBadGateway},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewOrderHandler(testhelpers.OrderFacadeStub{}, testhelpers.CheckoutFacadeStub{RetryFn: func(context.Context, int64, string) (*usecase.CheckoutResult, error) {
				return nil, tc.err
			}})
			resp := performRequest(t, http.MethodPost, "/order/:orderId/retry", "/order/ORD-1/retry", handler.RetryPayment, asUser(3), nil, nil)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestPaymentHandlerRedirects(t *testing.T) {
	cases := []struct {
		name    string
		outcome *usecase.Outcome
		err     error
		page    string
	}{
		{"confirmed", &usecase.Outcome{Result: usecase.ResultConfirmed}, nil, "success"},
		{"failed", &usecase.Outcome{Result: usecase.ResultFailed}, nil, "failed"},
		{"cancelled", &usecase.Outcome{Result: usecase.ResultCancelled}, nil, "cancelled"},
		{"gateway unreachable", &usecase.Outcome{Result: usecase.ResultPending}, errors.New("validate payment: timeout"), "pending"},
		{"unknown order", nil, domainErrors.ErrNotFound, "failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotValidation string
			facade := testhelpers.PaymentFacadeStub{SuccessFn: func(_ context.Context, _ string, validationID string) (*usecase.Outcome, error) {
				gotValidation = validationID
				return tc.outcome, tc.err
			}}
			handler := NewPaymentHandler(facade, "https://shop.test/", discardLogger())

			form := url.Values{"val_id": {"VAL-1"}, "tran_id": {"ORD 1"}}
			resp := performRequest(t, http.MethodPost, "/success/:orderId", "/success/ORD%201", handler.SuccessRedirect, nil,
				[]byte(form.Encode()), map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
			if resp.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", resp.Code)
			}
			want := "https://shop.test/checkout/" + tc.page + "?orderId=ORD+1"
			if got := resp.Header().Get("Location"); got != want {
				t.Fatalf("expected redirect %q, got %q", want, got)
			}
			if gotValidation != "VAL-1" {
				t.Fatalf("expected val_id from form, got %q", gotValidation)
			}
		})
	}
}

func TestPaymentHandlerSuccessReadsQuery(t *testing.T) {
	var gotValidation string
	facade := testhelpers.PaymentFacadeStub{SuccessFn: func(_ context.Context, orderID, validationID string) (*usecase.Outcome, error) {
		gotValidation = validationID
		return &usecase.Outcome{Order: &model.Order{OrderID: orderID}, Result: usecase.ResultConfirmed}, nil
	}}
	handler := NewPaymentHandler(facade, "https://shop.test", discardLogger())
	resp := performRequest(t, http.MethodGet, "/success/:orderId", "/success/ORD-1?val_id=VAL-Q", handler.SuccessRedirect, nil, nil, nil)
	if resp.Code != http.StatusSeeOther || gotValidation != "VAL-Q" {
		t.Fatalf("expected query val_id, got %q (%d)", gotValidation, resp.Code)
	}
}

func TestPaymentHandlerFailAndCancel(t *testing.T) {
	var failed, cancelled string
	facade := testhelpers.PaymentFacadeStub{
		FailFn: func(_ context.Context, orderID, reason string) (*usecase.Outcome, error) {
			failed = orderID
			if reason != "" {
				t.Errorf("expected empty reason, got %q", reason)
			}
			return &usecase.Outcome{Result: usecase.ResultFailed}, nil
		},
		CancelFn: func(_ context.Context, orderID string) (*usecase.Outcome, error) {
			cancelled = orderID
			return &usecase.Outcome{Result: usecase.ResultCancelled}, nil
		},
	}
	handler := NewPaymentHandler(facade, "https://shop.test", discardLogger())

	resp := performRequest(t, http.MethodGet, "/fail/:orderId", "/fail/ORD-2", handler.FailRedirect, nil, nil, nil)
	if failed != "ORD-2" || !strings.HasSuffix(resp.Header().Get("Location"), "/checkout/failed?orderId=ORD-2") {
		t.Fatalf("unexpected fail redirect %q", resp.Header().Get("Location"))
	}
	resp = performRequest(t, http.MethodGet, "/cancel/:orderId", "/cancel/ORD-3", handler.CancelRedirect, nil, nil, nil)
	if cancelled != "ORD-3" || !strings.HasSuffix(resp.Header().Get("Location"), "/checkout/cancelled?orderId=ORD-3") {
		t.Fatalf("unexpected cancel redirect %q", resp.Header().Get("Location"))
	}
}

func TestPaymentHandlerFailForwardsReason(t *testing.T) {
	formHeaders := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	cases := []struct {
		name    string
		target  string
		body    []byte
		headers map[string]string
		want    string
	}{
		{"form error", "/fail/ORD-4", []byte(url.Values{"error": {" Card declined "}}.Encode()), formHeaders, "Card declined"},
		{"form failedreason", "/fail/ORD-4", []byte(url.Values{"failedreason": {"Insufficient balance"}}.Encode()), formHeaders, "Insufficient balance"},
		{"error wins", "/fail/ORD-4", []byte(url.Values{"error": {"Timeout"}, "failedreason": {"other"}}.Encode()), formHeaders, "Timeout"},
		{"query", "/fail/ORD-4?error=Bank+unavailable", nil, nil, "Bank unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			facade := testhelpers.PaymentFacadeStub{FailFn: func(_ context.Context, _ string, reason string) (*usecase.Outcome, error) {
				got = reason
				return &usecase.Outcome{Result: usecase.ResultFailed}, nil
			}}
			handler := NewPaymentHandler(facade, "https://shop.test", discardLogger())

			resp := performRequest(t, http.MethodPost, "/fail/:orderId", tc.target, handler.FailRedirect, nil, tc.body, tc.headers)
			if resp.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", resp.Code)
			}
			if got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPaymentHandlerNotifyAlwaysOK(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"processed", nil},
		{"rejected", usecase.ErrInvalidNotification},
		{"storage", errors.New("db down")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got usecase.IPNPayload
			facade := testhelpers.PaymentFacadeStub{NotifyFn: func(_ context.Context, ipn usecase.IPNPayload) (*usecase.Outcome, error) {
				got = ipn
				if tc.err != nil {
					return nil, tc.err
				}
				return &usecase.Outcome{Result: usecase.ResultConfirmed, Applied: true}, nil
			}}
			handler := NewPaymentHandler(facade, "https://shop.test", discardLogger())

			form := url.Values{"tran_id": {"ORD-1"}, "val_id": {"VAL-1"}, "status": {"VALID"}, "amount": {"1260.00"}}
			resp := performRequest(t, http.MethodPost, "/ipn", "/ipn", handler.Notify, nil,
				[]byte(form.Encode()), map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.Code)
			}
			if got.TransactionID != "ORD-1" || got.ValidationID != "VAL-1" || got.Status != "VALID" {
				t.Fatalf("unexpected payload %+v", got)
			}
			if got.Raw["amount"] != "1260.00" {
				t.Fatalf("expected raw form to be forwarded, got %+v", got.Raw)
			}
		})
	}
}

func TestAdminHandlerChangeStatus(t *testing.T) {
	var gotTo model.OrderStatus
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{ChangeFn: func(_ context.Context, orderID string, to model.OrderStatus, note string) (*model.Order, error) {
		gotTo = to
		if note != "courier picked up" {
			t.Errorf("unexpected note %q", note)
		}
		return &model.Order{OrderID: orderID, Status: to}, nil
	}})

	body, _ := json.Marshal(dto.StatusChangeRequest{Status: "shipped", Note: "courier picked up"})
	resp := performRequest(t, http.MethodPatch, "/orders/:orderId/status", "/orders/ORD-1/status", handler.ChangeStatus, nil, body, jsonHeaders)
	if resp.Code != http.StatusOK || gotTo != model.OrderStatusShipped {
		t.Fatalf("expected shipped order, got %d %s", resp.Code, gotTo)
	}

	body, _ = json.Marshal(dto.StatusChangeRequest{Status: "archived"})
	resp = performRequest(t, http.MethodPatch, "/orders/:orderId/status", "/orders/ORD-1/status", handler.ChangeStatus, nil, body, jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing", domainErrors.ErrNotFound, http.StatusNotFound},
		{"illegal", &statemachine.TransitionError{OrderID: "ORD-1", Event: "status_changed", Status: model.OrderStatusDelivered, Reason: "terminal"}, http.StatusConflict},
		{"conflict", domainErrors.ErrStateConflict, http.StatusConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAdminHandler(testhelpers.AdminFacadeStub{ChangeFn: func(context.Context, string, model.OrderStatus, string) (*model.Order, error) {
				return nil, tc.err
			}})
			body, _ := json.Marshal(dto.StatusChangeRequest{Status: "shipped"})
			resp := performRequest(t, http.MethodPatch, "/orders/:orderId/status", "/orders/ORD-1/status", handler.ChangeStatus, nil, body, jsonHeaders)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestAdminHandlerCashCollected(t *testing.T) {
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{})
	resp := performRequest(t, http.MethodPost, "/orders/:orderId/cash", "/orders/ORD-1/cash", handler.CashCollected, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 without body, got %d", resp.Code)
	}
	var payload dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Payment.Status != "completed" {
		t.Fatalf("expected completed payment, got %+v", payload.Payment)
	}

	illegal := NewAdminHandler(testhelpers.AdminFacadeStub{CollectFn: func(context.Context, string, string) (*model.Order, error) {
		return nil, fmt.Errorf("collect: %w", statemachine.ErrIllegalTransition)
	}})
	body, _ := json.Marshal(dto.CashCollectedRequest{Note: "paid"})
	resp = performRequest(t, http.MethodPost, "/orders/:orderId/cash", "/orders/ORD-1/cash", illegal.CashCollected, nil, body, jsonHeaders)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/orders/:orderId/cash", "/orders/ORD-1/cash", handler.CashCollected, nil, []byte("{"), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(testhelpers.HealthFacadeStub{}).Check, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(testhelpers.HealthFacadeStub{Err: errors.New("down")}).Check, nil, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
