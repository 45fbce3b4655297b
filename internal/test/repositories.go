package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, user model.User) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[user.Login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	if user.Role == "" {
		user.Role = model.RoleCustomer
	}
	user.ID = s.Next
	s.Next++
	stored := &user
	s.Users[user.Login] = stored
	s.ByID[user.ID] = stored
	return stored, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// CatalogStub serves products from a map.
type CatalogStub struct {
	Products map[string]model.Product
	Err      error
	Upserted []model.Product
}

// NewCatalogStub indexes products by ref.
func NewCatalogStub(products ...model.Product) *CatalogStub {
	s := &CatalogStub{Products: make(map[string]model.Product, len(products))}
	for _, p := range products {
		s.Products[p.Ref] = p
	}
	return s
}

// GetByRefs returns known products among refs.
func (s *CatalogStub) GetByRefs(ctx context.Context, refs []string) (map[string]model.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]model.Product, len(refs))
	for _, ref := range refs {
		if p, ok := s.Products[ref]; ok {
			out[ref] = p
		}
	}
	return out, nil
}

// Upsert records and stores product.
func (s *CatalogStub) Upsert(ctx context.Context, product model.Product) error {
	if s.Err != nil {
		return s.Err
	}
	if s.Products == nil {
		s.Products = make(map[string]model.Product)
	}
	s.Products[product.Ref] = product
	s.Upserted = append(s.Upserted, product)
	return nil
}

// OrderStore is an in-memory order repository with the same conditional write
// semantics as the database implementation. It is safe for concurrent use.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]model.Order

	CreateErr error
	GetErr    error
	AttachErr error
	ApplyErr  error
	ClaimErr  error

	// BeforeApply runs outside the lock before every conditional write.
	BeforeApply func(prev *model.Order)

	Applied   int
	Conflicts int
	Claimed   []string
}

// NewOrderStore seeds the store with orders.
func NewOrderStore(orders ...model.Order) *OrderStore {
	s := &OrderStore{orders: make(map[string]model.Order, len(orders))}
	for _, o := range orders {
		s.orders[o.OrderID] = o.Clone()
	}
	return s
}

// Create stores a new order.
func (s *OrderStore) Create(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if s.orders == nil {
		s.orders = make(map[string]model.Order)
	}
	if _, exists := s.orders[order.OrderID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	s.orders[order.OrderID] = order.Clone()
	return nil
}

// GetByOrderID returns a copy of the stored order.
func (s *OrderStore) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	order, ok := s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	clone := order.Clone()
	return &clone, nil
}

// Snapshot returns the stored order without error handling.
func (s *OrderStore) Snapshot(orderID string) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID].Clone()
}

// Put overwrites the stored order.
func (s *OrderStore) Put(order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders == nil {
		s.orders = make(map[string]model.Order)
	}
	s.orders[order.OrderID] = order.Clone()
}

// ListByPayer returns summaries newest first.
func (s *OrderStore) ListByPayer(ctx context.Context, payerID int64) ([]model.OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	var out []model.OrderSummary
	for _, o := range s.orders {
		if o.PayerID != payerID {
			continue
		}
		out = append(out, model.OrderSummary{
			OrderID:       o.OrderID,
			Total:         o.Pricing.Total,
			Status:        o.Status,
			PaymentMethod: o.Payment.Method,
			PaymentStatus: o.Payment.Status,
			CreatedAt:     o.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AttachSession stores the session while the payment is pending.
func (s *OrderStore) AttachSession(ctx context.Context, orderID string, session model.GatewaySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AttachErr != nil {
		return s.AttachErr
	}
	order, ok := s.orders[orderID]
	if !ok || order.Payment.Status != model.PaymentStatusPending {
		return domainErrors.ErrStateConflict
	}
	order.Payment.Session = &session
	s.orders[orderID] = order
	return nil
}

// ApplyTransition replaces the stored order with next only if its statuses still equal prev's.
func (s *OrderStore) ApplyTransition(ctx context.Context, prev, next *model.Order) error {
	if s.BeforeApply != nil {
		s.BeforeApply(prev)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ApplyErr != nil {
		return s.ApplyErr
	}
	stored, ok := s.orders[prev.OrderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if stored.Status != prev.Status || stored.Payment.Status != prev.Payment.Status {
		s.Conflicts++
		return domainErrors.ErrStateConflict
	}
	s.orders[prev.OrderID] = next.Clone()
	s.Applied++
	return nil
}

// ClaimStalePending returns pending gateway orders created before the cutoff.
func (s *OrderStore) ClaimStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}
	var ids []string
	for id, o := range s.orders {
		if len(ids) == limit {
			break
		}
		if o.Payment.Method.ViaGateway() &&
			o.Payment.Status == model.PaymentStatusPending &&
			o.Status == model.OrderStatusPending &&
			o.CreatedAt.Before(createdBefore) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	s.Claimed = append(s.Claimed, ids...)
	return ids, nil
}
