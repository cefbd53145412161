package notify

import (
	"context"
	"slices"
	"sync"

	"github.com/nikolayk812/cartstate/internal/domain"
	"github.com/nikolayk812/cartstate/internal/port"
	"go.uber.org/zap"
)

// Logger writes notifications to a zap logger, one entry per notification.
type Logger struct {
	logger *zap.Logger
}

var _ port.Notifier = (*Logger)(nil)

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(_ context.Context, n domain.Notification) {
	l.logger.Warn(n.Message(),
		zap.Stringer("notification_id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.String("op", string(n.Operation)),
		zap.Int64("product_id", int64(n.ProductID)),
		zap.Time("created_at", n.CreatedAt),
	)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

var _ port.Notifier = (*Recorder)(nil)

func (r *Recorder) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, n)
}

func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.notifications)
}

func (r *Recorder) Last() (domain.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notifications) == 0 {
		return domain.Notification{}, false
	}

	return r.notifications[len(r.notifications)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = nil
}

// Multi fans a notification out to every notifier in order.
type Multi []port.Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Func adapts a plain function to port.Notifier.
type Func func(ctx context.Context, n domain.Notification)

func (f Func) Notify(ctx context.Context, n domain.Notification) {
	f(ctx, n)
}
