// Package cart implements the cart state engine: line item mutations validated
// against inventory stock and mirrored into a snapshot store.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikolayk812/cartstate/internal/codec"
	"github.com/nikolayk812/cartstate/internal/domain"
	"github.com/nikolayk812/cartstate/internal/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultKey = "@cartstate:cart"

	tracerName = "github.com/nikolayk812/cartstate/internal/cart"
)

// SnapshotPolicy selects which cart state is written to the store after a mutation.
type SnapshotPolicy int

const (
	// SnapshotAfterMutation persists the mutated cart and commits it in memory
	// only once the write succeeded, so memory and store never diverge.
	SnapshotAfterMutation SnapshotPolicy = iota

	// SnapshotBeforeMutation commits the mutated cart in memory first and then
	// persists the cart as it was before the mutation. The store lags one
	// mutation behind; kept for callers that depend on that legacy behavior.
	SnapshotBeforeMutation
)

func (p SnapshotPolicy) String() string {
	switch p {
	case SnapshotAfterMutation:
		return "after"
	case SnapshotBeforeMutation:
		return "before"
	default:
		return fmt.Sprintf("SnapshotPolicy(%d)", int(p))
	}
}

func ParseSnapshotPolicy(s string) (SnapshotPolicy, error) {
	switch s {
	case "", "after":
		return SnapshotAfterMutation, nil
	case "before":
		return SnapshotBeforeMutation, nil
	default:
		return 0, fmt.Errorf("snapshot policy[%s] is not supported", s)
	}
}

// Engine owns the in-memory cart. Mutations run one at a time; Cart can be
// read while a mutation waits on a collaborator.
type Engine struct {
	inventory port.Inventory
	catalog   port.Catalog
	store     port.SnapshotStore

	key    string
	policy SnapshotPolicy
	logger *zap.Logger
	tracer trace.Tracer

	opMu sync.Mutex

	mu   sync.RWMutex
	cart domain.Cart
}

type Option func(*Engine)

func WithKey(key string) Option {
	return func(e *Engine) {
		e.key = key
	}
}

func WithSnapshotPolicy(policy SnapshotPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(tracerName)
	}
}

// NewEngine restores the cart persisted under the engine key, or starts empty when there is none.
func NewEngine(ctx context.Context, inventory port.Inventory, catalog port.Catalog, store port.SnapshotStore, opts ...Option) (*Engine, error) {
	if inventory == nil {
		return nil, fmt.Errorf("inventory is nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}

	e := &Engine{
		inventory: inventory,
		catalog:   catalog,
		store:     store,
		key:       DefaultKey,
		policy:    SnapshotAfterMutation,
		logger:    zap.NewNop(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	restored, err := e.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("e.load: %w", err)
	}
	e.cart = restored

	e.logger.Info("cart restored",
		zap.String("key", e.key),
		zap.Int("items", restored.Len()),
		zap.Stringer("snapshot_policy", e.policy),
	)

	return e, nil
}

// Cart returns a copy of the current cart.
func (e *Engine) Cart() domain.Cart {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.cart.Clone()
}

// Add puts one more unit of the product into the cart, fetching the product
// from the catalog when it is not in the cart yet.
func (e *Engine) Add(ctx context.Context, productID domain.ProductID) (domain.Cart, error) {
	ctx, span := e.startSpan(ctx, "cart.Add", productID)
	defer span.End()

	e.opMu.Lock()
	defer e.opMu.Unlock()

	current := e.Cart()

	next, err := e.add(ctx, current, productID)
	if err != nil {
		return e.Cart(), e.fail(span, domain.OpAdd, productID, err)
	}

	e.logger.Debug("product added",
		zap.Int64("product_id", int64(productID)),
		zap.Int("amount", next.AmountOf(productID)),
	)

	return next, nil
}

func (e *Engine) add(ctx context.Context, current domain.Cart, productID domain.ProductID) (domain.Cart, error) {
	stock, err := e.inventory.GetStock(ctx, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("inventory.GetStock: %w", err)
	}

	amount := current.AmountOf(productID)
	if amount+1 > stock.Amount {
		return domain.Cart{}, stockExceeded(productID, amount+1, stock.Amount)
	}

	var next domain.Cart

	if current.Contains(productID) {
		next = current.WithAmount(productID, amount+1)
	} else {
		product, err := e.catalog.GetProduct(ctx, productID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("catalog.GetProduct: %w", err)
		}
		if product.ID != productID {
			return domain.Cart{}, fmt.Errorf("catalog returned product[%d]", product.ID)
		}

		e.logger.Debug("product fetched from catalog",
			zap.Int64("product_id", int64(productID)),
			zap.Stringer("price", product.Price),
		)

		next = current.Append(domain.LineItem{Product: product, Amount: 1})
	}

	if err := e.commit(ctx, current, next); err != nil {
		return domain.Cart{}, fmt.Errorf("e.commit: %w", err)
	}

	return next, nil
}

// Remove drops the product from the cart. Removing an absent product is not an error.
func (e *Engine) Remove(ctx context.Context, productID domain.ProductID) (domain.Cart, error) {
	ctx, span := e.startSpan(ctx, "cart.Remove", productID)
	defer span.End()

	e.opMu.Lock()
	defer e.opMu.Unlock()

	current := e.Cart()
	next := current.Without(productID)

	if err := e.commit(ctx, current, next); err != nil {
		return e.Cart(), e.fail(span, domain.OpRemove, productID, fmt.Errorf("e.commit: %w", err))
	}

	e.logger.Debug("product removed",
		zap.Int64("product_id", int64(productID)),
		zap.Bool("was_present", current.Contains(productID)),
	)

	return next, nil
}

// UpdateAmount sets the amount of a product already in the cart. Non-positive
// amounts and absent products leave the cart unchanged.
func (e *Engine) UpdateAmount(ctx context.Context, req domain.UpdateProductAmount) (domain.Cart, error) {
	ctx, span := e.startSpan(ctx, "cart.UpdateAmount", req.ProductID)
	defer span.End()

	span.SetAttributes(attribute.Int("cart.requested_amount", req.Amount))

	if req.Amount <= 0 {
		span.SetAttributes(attribute.Bool("cart.noop", true))
		return e.Cart(), nil
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	current := e.Cart()

	next, err := e.updateAmount(ctx, current, req)
	if err != nil {
		return e.Cart(), e.fail(span, domain.OpUpdate, req.ProductID, err)
	}

	e.logger.Debug("product amount updated",
		zap.Int64("product_id", int64(req.ProductID)),
		zap.Int("amount", req.Amount),
		zap.Bool("was_present", current.Contains(req.ProductID)),
	)

	return next, nil
}

func (e *Engine) updateAmount(ctx context.Context, current domain.Cart, req domain.UpdateProductAmount) (domain.Cart, error) {
	stock, err := e.inventory.GetStock(ctx, req.ProductID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("inventory.GetStock: %w", err)
	}

	if req.Amount > stock.Amount {
		return domain.Cart{}, stockExceeded(req.ProductID, req.Amount, stock.Amount)
	}

	next := current.WithAmount(req.ProductID, req.Amount)

	if err := e.commit(ctx, current, next); err != nil {
		return domain.Cart{}, fmt.Errorf("e.commit: %w", err)
	}

	return next, nil
}

func (e *Engine) commit(ctx context.Context, before, after domain.Cart) error {
	if e.policy == SnapshotBeforeMutation {
		e.setCart(after)
		return e.persist(ctx, before)
	}

	if err := e.persist(ctx, after); err != nil {
		return err
	}
	e.setCart(after)

	return nil
}

func (e *Engine) persist(ctx context.Context, snapshot domain.Cart) error {
	blob, err := codec.MarshalCart(snapshot)
	if err != nil {
		return fmt.Errorf("codec.MarshalCart: %w", err)
	}

	if err := e.store.Set(ctx, e.key, blob); err != nil {
		return fmt.Errorf("store.Set: %w", err)
	}

	return nil
}

func (e *Engine) load(ctx context.Context) (domain.Cart, error) {
	blob, err := e.store.Get(ctx, e.key)
	if errors.Is(err, port.ErrSnapshotNotFound) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("store.Get: %w", err)
	}

	restored, err := codec.UnmarshalCart(blob)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("codec.UnmarshalCart: %w", err)
	}

	return restored, nil
}

func (e *Engine) setCart(c domain.Cart) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cart = c
}

func (e *Engine) startSpan(ctx context.Context, name string, productID domain.ProductID) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("product.id", int64(productID)),
	))
}

// fail records err on the span and converts it to the error returned to callers.
func (e *Engine) fail(span trace.Span, op domain.Operation, productID domain.ProductID, err error) error {
	if errors.Is(err, ErrStockExceeded) {
		span.SetAttributes(attribute.Bool("cart.stock_exceeded", true))
		e.logger.Info("stock exceeded",
			zap.String("op", string(op)),
			zap.Int64("product_id", int64(productID)),
			zap.Error(err),
		)

		return err
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "cart operation failed")

	e.logger.Warn("cart operation failed",
		zap.String("op", string(op)),
		zap.Int64("product_id", int64(productID)),
		zap.Error(err),
	)

	return &OperationError{Op: op, ProductID: productID, Err: err}
}
