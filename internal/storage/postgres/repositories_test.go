package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

var userColumns = []string{"id", "login", "name", "phone", "role", "password_hash", "created_at"}

var orderColumns = []string{
	"order_id", "payer_id", "subtotal", "delivery_fee", "tax", "discount", "total",
	"shipping_address", "customer_notes", "note", "payment_method", "payment_status", "transaction_id", "validation_id",
	"paid_at", "session_id", "session_url", "session_created_at", "gateway_payload", "order_status", "created_at", "updated_at",
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmockv3.AnyArg()
	}
	return args
}

func TestUserRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &userRepository{storage: storage}

	createdAt := time.Now()
	mock.ExpectQuery("INSERT INTO users").WithArgs("user", "Rahim", "017", model.RoleCustomer, "hash").WillReturnRows(
		pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(1), createdAt),
	)
	user, err := repo.Create(context.Background(), model.User{Login: "user", Name: "Rahim", Phone: "017", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 1 || user.Login != "user" || user.Role != model.RoleCustomer {
		t.Fatalf("unexpected user: %+v", user)
	}

	mock.ExpectQuery("INSERT INTO users").WithArgs("ops", "", "", model.RoleAdmin, "hash").WillReturnRows(
		pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(2), createdAt),
	)
	if user, err := repo.Create(context.Background(), model.User{Login: "ops", Role: model.RoleAdmin, PasswordHash: "hash"}); err != nil || !user.IsAdmin() {
		t.Fatalf("unexpected admin: %+v err=%v", user, err)
	}

	mock.ExpectQuery("INSERT INTO users").WithArgs(anyArgs(5)...).WillReturnError(&pgconn.PgError{Code: "23505"})
	if _, err := repo.Create(context.Background(), model.User{Login: "user", PasswordHash: "hash"}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists error, got %v", err)
	}

	mock.ExpectQuery("INSERT INTO users").WithArgs(anyArgs(5)...).WillReturnError(errors.New("other"))
	if _, err := repo.Create(context.Background(), model.User{Login: "user", PasswordHash: "hash"}); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("FROM users WHERE login=").WithArgs("user").WillReturnRows(
		pgxmockv3.NewRows(userColumns).AddRow(int64(1), "user", "Rahim", "017", model.RoleCustomer, "hash", createdAt))
	if u, err := repo.GetByLogin(context.Background(), "user"); err != nil || u.Name != "Rahim" {
		t.Fatalf("unexpected result: %+v err=%v", u, err)
	}

	mock.ExpectQuery("FROM users WHERE login=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByLogin(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM users WHERE id=").WithArgs(int64(1)).WillReturnRows(
		pgxmockv3.NewRows(userColumns).AddRow(int64(1), "user", "Rahim", "017", model.RoleAdmin, "hash", createdAt))
	if u, err := repo.GetByID(context.Background(), 1); err != nil || !u.IsAdmin() {
		t.Fatalf("unexpected result: %+v err=%v", u, err)
	}

	mock.ExpectQuery("FROM users WHERE id=").WithArgs(int64(3)).WillReturnError(errors.New("boom"))
	if _, err := repo.GetByID(context.Background(), 3); err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected raw error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestCatalogRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &catalogRepository{storage: storage}

	products, err := repo.GetByRefs(context.Background(), nil)
	if err != nil || len(products) != 0 {
		t.Fatalf("expected empty lookup without query, got %v err=%v", products, err)
	}

	mock.ExpectQuery("SELECT ref, name, unit, price").WithArgs([]string{"rice", "oil"}).WillReturnRows(
		pgxmockv3.NewRows([]string{"ref", "name", "unit", "price", "active"}).
			AddRow("rice", "Miniket rice", "kg", "75.50", true).
			AddRow("oil", "Soybean oil", "l", "190.00", false),
	)
	products, err = repo.GetByRefs(context.Background(), []string{"rice", "oil", "rice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 || !products["rice"].Price.Equal(decimal.RequireFromString("75.5")) || products["oil"].Active {
		t.Fatalf("unexpected products: %+v", products)
	}

	mock.ExpectQuery("SELECT ref, name, unit, price").WithArgs([]string{"x"}).WillReturnError(errors.New("query"))
	if _, err := repo.GetByRefs(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectExec("INSERT INTO products").WithArgs("rice", "Miniket rice", "kg", "75.50", true).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := repo.Upsert(context.Background(), model.Product{Ref: "rice", Name: "Miniket rice", Unit: "kg", Price: decimal.RequireFromString("75.5"), Active: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func sampleOrder() *model.Order {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &model.Order{
		OrderID: "ORD-1",
		PayerID: 7,
		Items: []model.LineItem{
			{ProductRef: "rice", ProductName: "Miniket rice", Unit: "kg", Quantity: 2, UnitPrice: decimal.RequireFromString("600"), LineTotal: decimal.RequireFromString("1200")},
		},
		Pricing: model.Pricing{
			Subtotal:    decimal.RequireFromString("1200"),
			DeliveryFee: decimal.Zero,
			Tax:         decimal.RequireFromString("60"),
			Discount:    decimal.Zero,
			Total:       decimal.RequireFromString("1260"),
		},
		ShippingAddress: model.Address{FullName: "Rahim", Phone: "017", Line1: "Road 1", City: "Dhaka"},
		Payment:         model.PaymentInfo{Method: model.PaymentMethodCard, Status: model.PaymentStatusPending},
		Status:          model.OrderStatusPending,
		History:         []model.StatusEntry{{Status: model.OrderStatusPending, Timestamp: created, Note: "order placed"}},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestOrderRepositoryCreate(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	order := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs(22)...).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").WithArgs("ORD-1", 0, "rice", "Miniket rice", "kg", 2, "600.00", "1200.00").WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_status_history").WithArgs("ORD-1", model.OrderStatusPending, "order placed", order.CreatedAt).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectCommit()
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs(22)...).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()
	if err := repo.Create(context.Background(), order); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs(22)...).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").WithArgs(anyArgs(8)...).WillReturnError(errors.New("items"))
	mock.ExpectRollback()
	if err := repo.Create(context.Background(), order); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryGetByOrderID(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	now := time.Now().UTC()
	address, _ := json.Marshal(model.Address{FullName: "Rahim", City: "Dhaka"})
	payload := []byte(`{"status":"VALID","val_id":"VAL1"}`)
	sessionCreated := now

	mock.ExpectQuery("SELECT order_id, payer_id").WithArgs("ORD-1").WillReturnRows(
		pgxmockv3.NewRows(orderColumns).AddRow(
			"ORD-1", int64(7), "1200.00", "0.00", "60.00", "0.00", "1260.00",
			address, "", "", model.PaymentMethodCard, model.PaymentStatusCompleted, "ORD-1", "VAL1",
			&now, "SESS1", "https://pay.example.com/SESS1", &sessionCreated, payload, model.OrderStatusConfirmed, now, now,
		))
	mock.ExpectQuery("FROM order_items WHERE order_id").WithArgs("ORD-1").WillReturnRows(
		pgxmockv3.NewRows([]string{"product_ref", "product_name", "unit", "quantity", "unit_price", "line_total"}).
			AddRow("rice", "Miniket rice", "kg", 2, "600.00", "1200.00"))
	mock.ExpectQuery("FROM order_status_history WHERE order_id").WithArgs("ORD-1").WillReturnRows(
		pgxmockv3.NewRows([]string{"status", "recorded_at", "note"}).
			AddRow(model.OrderStatusPending, now, "order placed").
			AddRow(model.OrderStatusConfirmed, now, "payment confirmed"))

	order, err := repo.GetByOrderID(context.Background(), "ORD-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusConfirmed || order.Payment.Status != model.PaymentStatusCompleted {
		t.Fatalf("unexpected statuses: %+v", order)
	}
	if !order.Pricing.Balanced() || !order.Pricing.Total.Equal(decimal.NewFromInt(1260)) {
		t.Fatalf("unexpected pricing: %+v", order.Pricing)
	}
	if order.Payment.Session == nil || order.Payment.Session.SessionID != "SESS1" {
		t.Fatalf("expected session, got %+v", order.Payment.Session)
	}
	if order.Payment.GatewayPayload["val_id"] != "VAL1" || order.ShippingAddress.City != "Dhaka" {
		t.Fatalf("unexpected documents: %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || len(order.History) != 2 {
		t.Fatalf("unexpected children: items=%v history=%v", order.Items, order.History)
	}

	mock.ExpectQuery("SELECT order_id, payer_id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByOrderID(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("SELECT order_id, payer_id").WithArgs("ORD-2").WillReturnRows(
		pgxmockv3.NewRows(orderColumns).AddRow(
			"ORD-2", int64(7), "10.00", "60.00", "0.50", "0.00", "70.50",
			address, "", "", model.PaymentMethodCashOnDelivery, model.PaymentStatusPending, "", "",
			nil, "", "", nil, nil, model.OrderStatusPending, now, now,
		))
	mock.ExpectQuery("FROM order_items WHERE order_id").WithArgs("ORD-2").WillReturnError(errors.New("items"))
	if _, err := repo.GetByOrderID(context.Background(), "ORD-2"); err == nil {
		t.Fatal("expected items error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryListByPayer(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	now := time.Now()
	columns := []string{"order_id", "total", "order_status", "payment_method", "payment_status", "created_at"}
	mock.ExpectQuery("FROM orders WHERE payer_id=").WithArgs(int64(7)).WillReturnRows(
		pgxmockv3.NewRows(columns).
			AddRow("ORD-2", "70.50", model.OrderStatusPending, model.PaymentMethodCashOnDelivery, model.PaymentStatusPending, now).
			AddRow("ORD-1", "1260.00", model.OrderStatusConfirmed, model.PaymentMethodCard, model.PaymentStatusCompleted, now.Add(-time.Hour)),
	)
	list, err := repo.ListByPayer(context.Background(), 7)
	if err != nil || len(list) != 2 || list[0].OrderID != "ORD-2" {
		t.Fatalf("unexpected result: %v err=%v", list, err)
	}

	mock.ExpectQuery("FROM orders WHERE payer_id=").WithArgs(int64(8)).WillReturnRows(pgxmockv3.NewRows(columns))
	if list, err := repo.ListByPayer(context.Background(), 8); err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v err=%v", list, err)
	}

	mock.ExpectQuery("FROM orders WHERE payer_id=").WithArgs(int64(9)).WillReturnError(errors.New("query"))
	if _, err := repo.ListByPayer(context.Background(), 9); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryListByPayerRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	repo := &orderRepository{storage: storage}

	if _, err := repo.ListByPayer(context.Background(), 1); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}

func TestOrderRepositoryAttachSession(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	session := model.GatewaySession{SessionID: "S1", RedirectURL: "https://pay.example.com/S1", CreatedAt: time.Now()}
	mock.ExpectExec("UPDATE orders SET session_id").WithArgs("ORD-1", "S1", session.RedirectURL, session.CreatedAt).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.AttachSession(context.Background(), "ORD-1", session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE orders SET session_id").WithArgs("ORD-1", "S1", session.RedirectURL, session.CreatedAt).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.AttachSession(context.Background(), "ORD-1", session); !errors.Is(err, domainErrors.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryApplyTransition(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	prev := sampleOrder()
	next := prev.Clone()
	paidAt := prev.CreatedAt.Add(time.Minute)
	next.Status = model.OrderStatusConfirmed
	next.Payment.Status = model.PaymentStatusCompleted
	next.Payment.TransactionID = "ORD-1"
	next.Payment.ValidationID = "VAL1"
	next.Payment.PaidAt = &paidAt
	next.UpdatedAt = paidAt
	next.History = append(next.History, model.StatusEntry{Status: model.OrderStatusConfirmed, Timestamp: paidAt, Note: "payment confirmed"})

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET order_status").WithArgs(
		"ORD-1", model.OrderStatusPending, model.PaymentStatusPending,
		model.OrderStatusConfirmed, model.PaymentStatusCompleted, "ORD-1", "VAL1",
		&paidAt, pgxmockv3.AnyArg(), "", paidAt,
	).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO order_status_history").WithArgs("ORD-1", model.OrderStatusConfirmed, "payment confirmed", paidAt).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectCommit()
	if err := repo.ApplyTransition(context.Background(), prev, &next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET order_status").WithArgs(anyArgs(11)...).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectRollback()
	if err := repo.ApplyTransition(context.Background(), prev, &next); !errors.Is(err, domainErrors.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	other := next.Clone()
	other.OrderID = "ORD-9"
	if err := repo.ApplyTransition(context.Background(), prev, &other); err == nil {
		t.Fatal("expected error for mismatched order ids")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryClaimStalePending(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	cutoff := time.Now().Add(-15 * time.Minute)
	mock.ExpectQuery("UPDATE orders SET payment_checked_at").WithArgs(cutoff, 2).WillReturnRows(
		pgxmockv3.NewRows([]string{"order_id"}).AddRow("ORD-1").AddRow("ORD-2"))
	ids, err := repo.ClaimStalePending(context.Background(), cutoff, 2)
	if err != nil || len(ids) != 2 || ids[1] != "ORD-2" {
		t.Fatalf("unexpected result: %v err=%v", ids, err)
	}

	mock.ExpectQuery("UPDATE orders SET payment_checked_at").WithArgs(cutoff, 2).WillReturnError(errors.New("claim"))
	if _, err := repo.ClaimStalePending(context.Background(), cutoff, 2); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
