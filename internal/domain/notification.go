package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	KindStockExceeded   NotificationKind = "stock_exceeded"
	KindOperationFailed NotificationKind = "operation_failed"
)

type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
	OpUpdate Operation = "update"
)

// Notification is a one-way, user-facing signal. ID lets a UI de-duplicate toasts.
type Notification struct {
	ID        uuid.UUID
	Kind      NotificationKind
	Operation Operation
	ProductID ProductID
	CreatedAt time.Time
}

func NewNotification(kind NotificationKind, op Operation, productID ProductID) Notification {
	return Notification{
		ID:        uuid.New(),
		Kind:      kind,
		Operation: op,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
}

func (n Notification) Message() string {
	if n.Kind == KindStockExceeded {
		return "Requested quantity is out of stock"
	}

	switch n.Operation {
	case OpAdd:
		return "Failed to add product"
	case OpRemove:
		return "Failed to remove product"
	case OpUpdate:
		return "Failed to update product amount"
	default:
		return "Cart operation failed"
	}
}
