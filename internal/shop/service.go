package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultLatency is how long every operation waits before touching the store.
const DefaultLatency = 200 * time.Millisecond

var ErrInvalidProduct = errors.New("invalid product")

// Service is the catalog and cart API the UI talks to. Each call first waits
// the configured latency, then reads or mutates the store.
type Service struct {
	store Store
	// writeMu pairs each cart mutation with its gauge update.
	writeMu sync.Mutex

	clock   Clock
	latency time.Duration
	log     *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLatency(d time.Duration) Option {
	return func(s *Service) { s.latency = d }
}

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		clock:   RealClock(),
		latency: DefaultLatency,
		log:     zap.NewNop(),
		tracer:  otel.Tracer("MiniShop/internal/shop"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics != nil {
		if lines, err := store.Cart(context.Background()); err == nil {
			s.metrics.CartLines.Set(float64(len(lines)))
		}
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return errors.New("store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Ping(ctx)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.run(ctx, "ListCategories", func(ctx context.Context) error {
		var err error
		out, err = s.store.Categories(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := s.run(ctx, "ListProducts", func(ctx context.Context) error {
		var err error
		out, err = s.store.Products(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetProduct(ctx context.Context, id ProductID) (Product, bool, error) {
	var (
		p     Product
		found bool
	)
	err := s.run(ctx, "GetProduct", func(ctx context.Context) error {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("shop.product_id", id.String()))
		var err error
		p, found, err = s.store.Product(ctx, id)
		return err
	})
	if err != nil {
		return Product{}, false, err
	}
	return p, found, nil
}

func (s *Service) GetCart(ctx context.Context) (Cart, error) {
	var c Cart
	err := s.run(ctx, "GetCart", func(ctx context.Context) error {
		lines, err := s.store.Cart(ctx)
		if err != nil {
			return err
		}
		c = Cart{Lines: lines, TotalPrice: totalPrice(lines)}
		return nil
	})
	if err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (s *Service) AddToCart(ctx context.Context, p Product) error {
	return s.run(ctx, "AddToCart", func(ctx context.Context) error {
		if p.ID.IsZero() {
			return fmt.Errorf("%w: missing id", ErrInvalidProduct)
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("%w: negative price", ErrInvalidProduct)
		}

		s.writeMu.Lock()
		line, lines, err := s.store.AddToCart(ctx, p)
		if err == nil {
			s.metrics.added(lines)
		}
		s.writeMu.Unlock()
		if err != nil {
			return err
		}

		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("shop.product_id", p.ID.String()),
			attribute.Int("shop.quantity", line.Quantity),
		)
		s.log.Debug("cart line updated",
			zap.String("product_id", p.ID.String()),
			zap.Int("quantity", line.Quantity),
			zap.Int("lines", lines),
		)
		return nil
	})
}

func (s *Service) ClearCart(ctx context.Context) error {
	return s.run(ctx, "ClearCart", func(ctx context.Context) error {
		s.writeMu.Lock()
		n, err := s.store.ClearCart(ctx)
		if err == nil {
			s.metrics.cleared()
		}
		s.writeMu.Unlock()
		if err != nil {
			return err
		}
		s.log.Debug("cart cleared", zap.Int("dropped_lines", n))
		return nil
	})
}

func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "shop."+op)
	defer span.End()

	start := time.Now()
	err := s.wait(ctx)
	if err == nil {
		err = fn(ctx)
	}
	s.metrics.observe(op, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// wait blocks for the simulated latency. The store is not touched when ctx
// ends first.
func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(s.latency):
		return nil
	}
}
