package repositories

import (
	"context"
	"time"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/orm"
	"gorm.io/gorm"
)

// OrderFilter narrows the admin listing. Zero values match everything.
type OrderFilter struct {
	Status string
	// Date matches orders scheduled on that calendar day.
	Date *time.Time
}

// StatusUpdate is a single status change.
type StatusUpdate struct {
	OrderID string
	From    string
	To      string
	// ExpectedVersion makes the update conditional. Zero updates blindly.
	ExpectedVersion int
	ScheduledDate   *time.Time
	ActorID         uint
}

// OrderRepository persists orders, their items and their status history.
type OrderRepository struct {
	q *orm.Query
}

func NewOrderRepository(q *orm.Query) *OrderRepository {
	return &OrderRepository{q: q}
}

// Create writes the order, its items and the initial history row in one
// transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, actorID uint) error {
	return r.q.WithContext(ctx).Transaction(func(tx *orm.Query) error {
		if err := tx.Create(order); err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusChange{
			OrderID:  order.ID,
			ToStatus: order.Status,
			ActorID:  actorID,
		})
	})
}

// Find loads one order with its customer, items and history.
func (r *OrderRepository) Find(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := r.q.WithContext(ctx).
		Model(&models.Order{}).
		Preload("User").
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }).
		Where("id = ?", id).
		First(&o)
	return o, err
}

// List returns orders newest first with customer and items.
func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.q.WithContext(ctx).
		Model(&models.Order{}).
		Preload("User").
		Preload("Items").
		Order("created_at desc")

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Date != nil {
		start := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
		q = q.Where("scheduled_date >= ? AND scheduled_date < ?", start, start.AddDate(0, 0, 1))
	}

	var orders []models.Order
	err := q.Get(&orders)
	return orders, err
}

// ListByUser returns one customer's orders newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.q.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Get(&orders)
	return orders, err
}

// UpdateStatus applies u and appends the history row in one transaction.
// A conditional update that matches no row is a conflict.
func (r *OrderRepository) UpdateStatus(ctx context.Context, u StatusUpdate) error {
	return r.q.WithContext(ctx).Transaction(func(tx *orm.Query) error {
		values := map[string]interface{}{
			"status":  u.To,
			"version": gorm.Expr("version + 1"),
		}
		if u.ScheduledDate != nil {
			values["scheduled_date"] = *u.ScheduledDate
		}

		q := tx.Model(&models.Order{}).Where("id = ?", u.OrderID)
		if u.ExpectedVersion > 0 {
			q = q.Where("version = ?", u.ExpectedVersion)
		}

		n, err := q.Updates(values)
		if err != nil {
			return err
		}
		if n == 0 {
			if u.ExpectedVersion > 0 {
				return apperr.Conflict("orders.UpdateStatus", "order was modified by someone else, reload and try again")
			}
			return gorm.ErrRecordNotFound
		}

		return tx.Create(&models.OrderStatusChange{
			OrderID:    u.OrderID,
			FromStatus: u.From,
			ToStatus:   u.To,
			ActorID:    u.ActorID,
		})
	})
}

// CountByStatus returns the number of orders in each status.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.q.WithContext(ctx).
		Model(&models.Order{}).
		Gorm().
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
