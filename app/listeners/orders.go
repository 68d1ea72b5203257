// Package listeners reacts to order lifecycle events.
package listeners

import (
	"context"
	"sync"

	"github.com/eadens/cakeworld/app/lifecycle"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/event"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/metrics"
)

var once sync.Once

// Register subscribes the order listeners. Safe to call more than once.
func Register() {
	once.Do(func() {
		event.Listen(OnOrderCreated)
		event.Listen(OnStatusChanged)
	})
}

func OnOrderCreated(ctx context.Context, e services.OrderCreated) {
	metrics.OrdersCreated.WithLabelValues(e.Order.DeliveryMethod).Inc()
	logger.WithCtx(ctx).Info("order placed",
		"order_id", e.Order.ID,
		"user_id", e.Order.UserID,
		"items", len(e.Order.Items),
		"total", e.Order.Total.StringFixed(2),
	)
}

func OnStatusChanged(ctx context.Context, e services.StatusChanged) {
	metrics.OrderTransitions.WithLabelValues(e.From.String(), e.To.String()).Inc()
	logger.WithCtx(ctx).Info("order status changed",
		"order_id", e.OrderID,
		"from", e.From.String(),
		"to", e.To.String(),
		"actor_id", e.ActorID,
	)
}

// Counter is the part of the order service the gauge refresher needs.
type Counter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// RefreshStatusGauge sets the orders-by-status gauge from the database.
// Statuses with no orders are reported as zero. On error the gauge keeps
// its previous values.
func RefreshStatusGauge(ctx context.Context, c Counter) error {
	counts, err := c.CountByStatus(ctx)
	if err != nil {
		return err
	}
	for _, st := range lifecycle.Statuses {
		metrics.OrdersByStatus.WithLabelValues(st.String()).Set(float64(counts[st.String()]))
	}
	return nil
}
