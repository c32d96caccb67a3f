package shop

import "context"

// Store holds the catalog and the cart. Implementations return copies and
// apply each cart mutation atomically.
type Store interface {
	Ping(ctx context.Context) error

	Categories(ctx context.Context) ([]Category, error)
	Products(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id ProductID) (Product, bool, error)

	Cart(ctx context.Context) ([]CartLine, error)
	// AddToCart returns the resulting line and the number of lines in the cart.
	AddToCart(ctx context.Context, p Product) (CartLine, int, error)
	// ClearCart returns how many lines were dropped.
	ClearCart(ctx context.Context) (int, error)
}
