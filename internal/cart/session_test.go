package cart_test

import (
	"testing"

	"github.com/nikolayk812/cartstate/internal/cart"
	"github.com/nikolayk812/cartstate/internal/domain"
	"github.com/nikolayk812/cartstate/internal/notify"
	"github.com/nikolayk812/cartstate/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, inventory *stubInventory, catalog *stubCatalog) (*cart.Session, *notify.Recorder) {
	t.Helper()

	e, err := cart.NewEngine(t.Context(), inventory, catalog, repository.NewMemory())
	require.NoError(t, err)

	recorder := &notify.Recorder{}

	return cart.NewSession(e, recorder), recorder
}

func TestSession_Notifications(t *testing.T) {
	tests := []struct {
		name     string
		act      func(s *cart.Session, inventory *stubInventory)
		wantKind domain.NotificationKind
		wantOp   domain.Operation
	}{
		{
			name: "add beyond stock",
			act: func(s *cart.Session, inventory *stubInventory) {
				inventory.set(1, 1)
				s.AddProduct(t.Context(), 1)
				s.AddProduct(t.Context(), 1)
			},
			wantKind: domain.KindStockExceeded,
			wantOp:   domain.OpAdd,
		},
		{
			name: "add with inventory down",
			act: func(s *cart.Session, inventory *stubInventory) {
				inventory.err = errUnavailable
				s.AddProduct(t.Context(), 1)
			},
			wantKind: domain.KindOperationFailed,
			wantOp:   domain.OpAdd,
		},
		{
			name: "update beyond stock",
			act: func(s *cart.Session, inventory *stubInventory) {
				inventory.set(1, 2)
				s.AddProduct(t.Context(), 1)
				s.UpdateProductAmount(t.Context(), domain.UpdateProductAmount{ProductID: 1, Amount: 3})
			},
			wantKind: domain.KindStockExceeded,
			wantOp:   domain.OpUpdate,
		},
		{
			name: "update with inventory down",
			act: func(s *cart.Session, inventory *stubInventory) {
				inventory.err = errUnavailable
				s.UpdateProductAmount(t.Context(), domain.UpdateProductAmount{ProductID: 1, Amount: 3})
			},
			wantKind: domain.KindOperationFailed,
			wantOp:   domain.OpUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inventory := newStubInventory()
			s, recorder := newSession(t, inventory, &stubCatalog{})

			tt.act(s, inventory)

			notifications := recorder.All()
			require.Len(t, notifications, 1)
			assert.Equal(t, tt.wantKind, notifications[0].Kind)
			assert.Equal(t, tt.wantOp, notifications[0].Operation)
			assert.Equal(t, domain.ProductID(1), notifications[0].ProductID)
		})
	}
}

func TestSession_RemoveFailureNotifies(t *testing.T) {
	store := &recordingStore{SnapshotStore: repository.NewMemory()}

	e, err := cart.NewEngine(t.Context(), newStubInventory(), &stubCatalog{}, store)
	require.NoError(t, err)

	recorder := &notify.Recorder{}
	s := cart.NewSession(e, recorder)

	s.RemoveProduct(t.Context(), 3)
	assert.Empty(t, recorder.All(), "removing an absent product is silent")

	store.setErr = errUnavailable
	s.RemoveProduct(t.Context(), 3)

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, domain.KindOperationFailed, last.Kind)
	assert.Equal(t, domain.OpRemove, last.Operation)
	assert.Equal(t, "Failed to remove product", last.Message())
}

func TestSession_SuccessIsSilent(t *testing.T) {
	inventory := newStubInventory()
	inventory.set(42, 3)

	s, recorder := newSession(t, inventory, &stubCatalog{})

	s.AddProduct(t.Context(), 42)
	s.UpdateProductAmount(t.Context(), domain.UpdateProductAmount{ProductID: 42, Amount: 3})
	s.UpdateProductAmount(t.Context(), domain.UpdateProductAmount{ProductID: 42, Amount: 0})
	s.RemoveProduct(t.Context(), 42)

	assert.Empty(t, recorder.All())
	assert.Equal(t, 0, s.Cart().Len())
}
