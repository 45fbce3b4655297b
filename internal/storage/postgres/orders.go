package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

type orderRepository struct {
	storage *Storage
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectOrder = `SELECT order_id, payer_id, subtotal::text, delivery_fee::text, tax::text, discount::text, total::text,
                   shipping_address, customer_notes, note, payment_method, payment_status, transaction_id, validation_id,
                   paid_at, session_id, session_url, session_created_at, gateway_payload, order_status, created_at, updated_at
                   FROM orders WHERE order_id=$1`

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	payload, err := encodePayload(order.Payment.GatewayPayload)
	if err != nil {
		return err
	}
	sessionID, sessionURL, sessionCreated := splitSession(order.Payment.Session)

	const insertOrder = `INSERT INTO orders (order_id, payer_id, subtotal, delivery_fee, tax, discount, total,
                         shipping_address, customer_notes, note, payment_method, payment_status, transaction_id, validation_id,
                         paid_at, session_id, session_url, session_created_at, gateway_payload, order_status, created_at, updated_at)
                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	const insertItem = `INSERT INTO order_items (order_id, position, product_ref, product_name, unit, quantity, unit_price, line_total)
                        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	p := order.Pricing
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrder,
			order.OrderID, order.PayerID,
			p.Subtotal.StringFixed(2), p.DeliveryFee.StringFixed(2), p.Tax.StringFixed(2), p.Discount.StringFixed(2), p.Total.StringFixed(2),
			address, order.CustomerNotes, order.Note,
			order.Payment.Method, order.Payment.Status, order.Payment.TransactionID, order.Payment.ValidationID,
			order.Payment.PaidAt, sessionID, sessionURL, sessionCreated, payload,
			order.Status, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}

		for i, item := range order.Items {
			if _, err := tx.Exec(ctx, insertItem, order.OrderID, i, item.ProductRef, item.ProductName, item.Unit,
				item.Quantity, item.UnitPrice.StringFixed(2), item.LineTotal.StringFixed(2)); err != nil {
				return err
			}
		}
		return insertHistory(ctx, tx, order.OrderID, order.History)
	})
}

func (r *orderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	return loadOrder(ctx, r.storage.pool, orderID)
}

func loadOrder(ctx context.Context, q queryer, orderID string) (*model.Order, error) {
	var (
		o              model.Order
		address        []byte
		payload        []byte
		sessionID      string
		sessionURL     string
		sessionCreated *time.Time
	)
	err := q.QueryRow(ctx, selectOrder, orderID).Scan(
		&o.OrderID, &o.PayerID,
		&o.Pricing.Subtotal, &o.Pricing.DeliveryFee, &o.Pricing.Tax, &o.Pricing.Discount, &o.Pricing.Total,
		&address, &o.CustomerNotes, &o.Note,
		&o.Payment.Method, &o.Payment.Status, &o.Payment.TransactionID, &o.Payment.ValidationID,
		&o.Payment.PaidAt, &sessionID, &sessionURL, &sessionCreated, &payload,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &o.Payment.GatewayPayload); err != nil {
			return nil, fmt.Errorf("decode gateway payload: %w", err)
		}
	}
	if sessionID != "" {
		o.Payment.Session = &model.GatewaySession{
			SessionID:   sessionID,
			RedirectURL: sessionURL,
			CreatedAt:   lo.FromPtr(sessionCreated),
		}
	}

	if o.Items, err = loadItems(ctx, q, orderID); err != nil {
		return nil, err
	}
	if o.History, err = loadHistory(ctx, q, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

func loadItems(ctx context.Context, q queryer, orderID string) ([]model.LineItem, error) {
	const query = `SELECT product_ref, product_name, unit, quantity, unit_price::text, line_total::text
                   FROM order_items WHERE order_id=$1 ORDER BY position`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.LineItem
	for rows.Next() {
		var it model.LineItem
		if err := rows.Scan(&it.ProductRef, &it.ProductName, &it.Unit, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func loadHistory(ctx context.Context, q queryer, orderID string) ([]model.StatusEntry, error) {
	const query = `SELECT status, recorded_at, note FROM order_status_history WHERE order_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.StatusEntry
	for rows.Next() {
		var e model.StatusEntry
		if err := rows.Scan(&e.Status, &e.Timestamp, &e.Note); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

func (r *orderRepository) ListByPayer(ctx context.Context, payerID int64) ([]model.OrderSummary, error) {
	const query = `SELECT order_id, total::text, order_status, payment_method, payment_status, created_at
                   FROM orders WHERE payer_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderSummary
	for rows.Next() {
		var s model.OrderSummary
		if err := rows.Scan(&s.OrderID, &s.Total, &s.Status, &s.PaymentMethod, &s.PaymentStatus, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AttachSession records a payment session while the payment is still pending.
func (r *orderRepository) AttachSession(ctx context.Context, orderID string, session model.GatewaySession) error {
	const query = `UPDATE orders SET session_id=$2, session_url=$3, session_created_at=$4, updated_at=NOW()
                   WHERE order_id=$1 AND payment_status='pending'`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, session.SessionID, session.RedirectURL, session.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrStateConflict
	}
	return nil
}

// ApplyTransition persists next only while the stored statuses still equal those of prev.
func (r *orderRepository) ApplyTransition(ctx context.Context, prev, next *model.Order) error {
	if prev.OrderID != next.OrderID {
		return fmt.Errorf("transition across orders %s and %s", prev.OrderID, next.OrderID)
	}
	if len(next.History) < len(prev.History) {
		return fmt.Errorf("history of order %s shrank", next.OrderID)
	}
	payload, err := encodePayload(next.Payment.GatewayPayload)
	if err != nil {
		return err
	}

	const update = `UPDATE orders SET order_status=$4, payment_status=$5, transaction_id=$6, validation_id=$7,
                    paid_at=$8, gateway_payload=$9, note=$10, updated_at=$11
                    WHERE order_id=$1 AND order_status=$2 AND payment_status=$3`

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, update,
			next.OrderID, prev.Status, prev.Payment.Status,
			next.Status, next.Payment.Status, next.Payment.TransactionID, next.Payment.ValidationID,
			next.Payment.PaidAt, payload, next.Note, next.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrStateConflict
		}
		return insertHistory(ctx, tx, next.OrderID, next.History[len(prev.History):])
	})
}

// ClaimStalePending stamps and returns gateway orders whose payment is still pending.
// Rows locked by a concurrent claimer are skipped.
func (r *orderRepository) ClaimStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	const query = `UPDATE orders SET payment_checked_at=NOW()
                   WHERE order_id IN (
                       SELECT order_id FROM orders
                       WHERE payment_status='pending' AND order_status='pending'
                         AND payment_method <> 'cash_on_delivery'
                         AND created_at < $1
                         AND (payment_checked_at IS NULL OR payment_checked_at < $1)
                       ORDER BY created_at
                       LIMIT $2
                       FOR UPDATE SKIP LOCKED
                   )
                   RETURNING order_id`
	rows, err := r.storage.pool.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, orderID string, entries []model.StatusEntry) error {
	const query = `INSERT INTO order_status_history (order_id, status, note, recorded_at) VALUES ($1, $2, $3, $4)`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, orderID, e.Status, e.Note, e.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

func encodePayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode gateway payload: %w", err)
	}
	return raw, nil
}

func splitSession(s *model.GatewaySession) (string, string, *time.Time) {
	if s == nil {
		return "", "", nil
	}
	return s.SessionID, s.RedirectURL, lo.ToPtr(s.CreatedAt)
}
