package shop

import (
	"context"
	"sync"
)

type MemStore struct {
	mu         sync.RWMutex
	categories []Category
	products   []Product
	cart       []CartLine
}

// NewMemStore builds a store from f. A missing cart becomes empty, missing or
// negative quantities become 0, and repeated cart lines for one id are merged
// into the first.
func NewMemStore(f Fixture) *MemStore {
	s := &MemStore{
		categories: make([]Category, 0, len(f.Categories)),
		products:   make([]Product, 0, len(f.Products)),
		cart:       make([]CartLine, 0, len(f.Cart)),
	}

	for _, c := range f.Categories {
		s.categories = append(s.categories, c.clone())
	}

	for _, p := range f.Products {
		p = p.clone()
		if p.Quantity < 0 {
			p.Quantity = 0
		}
		s.products = append(s.products, p)
	}

	for _, l := range f.Cart {
		if l.Quantity < 0 {
			l.Quantity = 0
		}
		if i := s.cartIndex(l.ID); i >= 0 {
			s.cart[i].Quantity += l.Quantity
			continue
		}
		s.cart = append(s.cart, CartLine{Product: l.Product.clone()})
	}

	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Categories(ctx context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c.clone())
	}
	return out, nil
}

func (s *MemStore) Products(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.clone())
	}
	return out, nil
}

func (s *MemStore) Product(ctx context.Context, id ProductID) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p.clone(), true, nil
		}
	}
	return Product{}, false, nil
}

func (s *MemStore) Cart(ctx context.Context) ([]CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CartLine, 0, len(s.cart))
	for _, l := range s.cart {
		out = append(out, CartLine{Product: l.Product.clone()})
	}
	return out, nil
}

// AddToCart bumps the quantity of the line for p.ID, or appends a copy of p
// with quantity 1. Stored fields of an existing line are left as they are.
func (s *MemStore) AddToCart(ctx context.Context, p Product) (CartLine, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.cartIndex(p.ID); i >= 0 {
		s.cart[i].Quantity++
		return CartLine{Product: s.cart[i].Product.clone()}, len(s.cart), nil
	}

	line := CartLine{Product: p.clone()}
	line.Quantity = 1
	s.cart = append(s.cart, line)
	return CartLine{Product: line.Product.clone()}, len(s.cart), nil
}

func (s *MemStore) ClearCart(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.cart)
	s.cart = []CartLine{}
	return n, nil
}

func (s *MemStore) cartIndex(id ProductID) int {
	for i := range s.cart {
		if s.cart[i].ID == id {
			return i
		}
	}
	return -1
}
