package repository

// Factory exposes the repositories backed by one store.
type Factory interface {
	Catalog() CatalogRepository
	Orders() OrderRepository
	Users() UserRepository
}
