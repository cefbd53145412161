package cart_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nikolayk812/cartstate/internal/domain"
	"github.com/nikolayk812/cartstate/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var errUnavailable = errors.New("service unavailable")

type stubInventory struct {
	mu    sync.Mutex
	stock map[domain.ProductID]int
	err   error
	calls atomic.Int32
}

func newStubInventory() *stubInventory {
	return &stubInventory{stock: make(map[domain.ProductID]int)}
}

func (s *stubInventory) set(id domain.ProductID, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stock[id] = amount
}

func (s *stubInventory) GetStock(_ context.Context, id domain.ProductID) (domain.StockRecord, error) {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return domain.StockRecord{}, s.err
	}

	amount, ok := s.stock[id]
	if !ok {
		return domain.StockRecord{}, port.ErrProductNotFound
	}

	return domain.StockRecord{ProductID: id, Amount: amount}, nil
}

type stubCatalog struct {
	err   error
	calls atomic.Int32
}

func (s *stubCatalog) GetProduct(_ context.Context, id domain.ProductID) (domain.Product, error) {
	s.calls.Add(1)

	if s.err != nil {
		return domain.Product{}, s.err
	}

	return productFixture(id), nil
}

// recordingStore wraps a store, counts writes and can be told to fail them.
type recordingStore struct {
	port.SnapshotStore

	mu     sync.Mutex
	sets   int
	setErr error
	getErr error
}

func (s *recordingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	getErr := s.getErr
	s.mu.Unlock()

	if getErr != nil {
		return nil, getErr
	}

	return s.SnapshotStore.Get(ctx, key)
}

func (s *recordingStore) Set(ctx context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setErr != nil {
		return s.setErr
	}
	s.sets++

	return s.SnapshotStore.Set(ctx, key, blob)
}

func (s *recordingStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sets
}

func productFixture(id domain.ProductID) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "product",
		Price:    domain.Money{Amount: decimal.NewFromInt(int64(id) + 100), Currency: currency.BRL},
		ImageURL: "https://example.com/product.jpg",
	}
}

func lineItem(id domain.ProductID, amount int) domain.LineItem {
	return domain.LineItem{Product: productFixture(id), Amount: amount}
}

type idAmount struct {
	ID     domain.ProductID
	Amount int
}

func idAmounts(c domain.Cart) []idAmount {
	result := make([]idAmount, 0, c.Len())
	for _, item := range c.Items {
		result = append(result, idAmount{ID: item.ID, Amount: item.Amount})
	}

	return result
}
