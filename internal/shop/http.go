package shop

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

const maxAddBody = 1 << 20

type Server struct {
	Service *Service
	Log     *zap.Logger

	// AddLimit throttles POST /cart/items when set.
	AddLimit *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Service.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/categories", s.listCategories)
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)

	r.Get("/cart", s.getCart)
	r.Delete("/cart", s.clearCart)

	add := r.With()
	if s.AddLimit != nil {
		add = r.With(s.AddLimit.Middleware)
	}
	add.Post("/cart/items", s.addToCart)

	return r
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Service.ListCategories(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list categories", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, categories)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Service.ListProducts(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list products", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")

	p, ok, err := s.Service.GetProduct(r.Context(), ParseProductID(raw))
	if err != nil {
		s.writeServiceError(w, r, "get product", err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": raw})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.Service.GetCart(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "get cart", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, cart)
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if err := s.Service.AddToCart(r.Context(), p); err != nil {
		s.writeServiceError(w, r, "add to cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.ClearCart(r.Context()); err != nil {
		s.writeServiceError(w, r, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (Product, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAddBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)

	var p Product
	if err := dec.Decode(&p); err != nil {
		return Product{}, err
	}
	if dec.More() {
		return Product{}, errors.New("extra data after json object")
	}
	return p, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidProduct):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product", map[string]any{"cause": err.Error()})
	case isTimeoutErr(err):
		s.logger().Warn(op+" interrupted", zap.Error(err))
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.logger().Error(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
