package cart

import (
	"errors"
	"fmt"

	"github.com/nikolayk812/cartstate/internal/domain"
)

// ErrStockExceeded rejects a mutation whose resulting amount would exceed the observed stock.
var ErrStockExceeded = errors.New("requested amount exceeds stock")

// OperationError wraps any other failure of a cart operation.
type OperationError struct {
	Op        domain.Operation
	ProductID domain.ProductID
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("cart %s product[%d]: %v", e.Op, e.ProductID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func stockExceeded(id domain.ProductID, requested, available int) error {
	return fmt.Errorf("product[%d] requested[%d] available[%d]: %w", id, requested, available, ErrStockExceeded)
}
