package cart

import (
	"context"
	"errors"

	"github.com/nikolayk812/cartstate/internal/domain"
	"github.com/nikolayk812/cartstate/internal/port"
)

// Session is the cart surface handed to UI components. Its operations never
// return errors: every failure becomes exactly one notification, and callers
// observe the outcome through Cart.
type Session struct {
	engine   *Engine
	notifier port.Notifier
}

var _ port.Cart = (*Session)(nil)

func NewSession(engine *Engine, notifier port.Notifier) *Session {
	return &Session{
		engine:   engine,
		notifier: notifier,
	}
}

func (s *Session) Cart() domain.Cart {
	return s.engine.Cart()
}

func (s *Session) AddProduct(ctx context.Context, productID domain.ProductID) {
	_, err := s.engine.Add(ctx, productID)
	s.report(ctx, domain.OpAdd, productID, err)
}

func (s *Session) RemoveProduct(ctx context.Context, productID domain.ProductID) {
	_, err := s.engine.Remove(ctx, productID)
	s.report(ctx, domain.OpRemove, productID, err)
}

func (s *Session) UpdateProductAmount(ctx context.Context, req domain.UpdateProductAmount) {
	_, err := s.engine.UpdateAmount(ctx, req)
	s.report(ctx, domain.OpUpdate, req.ProductID, err)
}

func (s *Session) report(ctx context.Context, op domain.Operation, productID domain.ProductID, err error) {
	if err == nil || s.notifier == nil {
		return
	}

	kind := domain.KindOperationFailed
	if errors.Is(err, ErrStockExceeded) {
		kind = domain.KindStockExceeded
	}

	s.notifier.Notify(ctx, domain.NewNotification(kind, op, productID))
}
