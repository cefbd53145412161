package port

import (
	"context"
	"errors"

	"github.com/nikolayk812/cartstate/internal/domain"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrProductNotFound  = errors.New("product not found")
)

type Inventory interface {
	GetStock(ctx context.Context, productID domain.ProductID) (domain.StockRecord, error)
}

type Catalog interface {
	GetProduct(ctx context.Context, productID domain.ProductID) (domain.Product, error)
}

// SnapshotStore keeps one serialized cart per key, last writer wins.
type SnapshotStore interface {
	// Get returns ErrSnapshotNotFound when nothing was stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Cart is the surface consumed by UI components. Failures are reported through a Notifier only.
type Cart interface {
	Cart() domain.Cart
	AddProduct(ctx context.Context, productID domain.ProductID)
	RemoveProduct(ctx context.Context, productID domain.ProductID)
	UpdateProductAmount(ctx context.Context, req domain.UpdateProductAmount)
}
