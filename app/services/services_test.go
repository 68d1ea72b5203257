package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/app/lifecycle"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/database"
	"github.com/eadens/cakeworld/pkg/orm"
)

type fixture struct {
	q        *orm.Query
	orders   *services.OrderService
	products *repositories.ProductRepository
	customer auth.Principal
	admin    auth.Principal
}

func newFixture(t *testing.T, opts services.OrderOptions) *fixture {
	t.Helper()

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{},
		&models.OrderStatusChange{}, &models.Review{}, &models.CustomCake{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	q := orm.Use(db)
	customer := models.User{Name: "Test Customer", Email: "customer@example.com", Password: "x", Role: models.RoleCustomer}
	admin := models.User{Name: "Admin User", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, q.Create(&customer))
	require.NoError(t, q.Create(&admin))

	if opts.DeliveryFee.IsZero() {
		opts.DeliveryFee = decimal.RequireFromString("5.99")
	}
	products := repositories.NewProductRepository(q)
	return &fixture{
		q:        q,
		orders:   services.NewOrderService(repositories.NewOrderRepository(q), products, opts),
		products: products,
		customer: auth.Principal{UserID: customer.ID, Role: auth.RoleCustomer},
		admin:    auth.Principal{UserID: admin.ID, Role: auth.RoleAdmin},
	}
}

func (f *fixture) product(t *testing.T, name, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Category: "chocolate"}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func (f *fixture) pendingOrder(t *testing.T) models.Order {
	t.Helper()
	p := f.product(t, "Vanilla Dream", "32.99")
	order, err := f.orders.Create(context.Background(), f.customer, services.CreateOrderInput{
		Items:          []services.OrderItemInput{{ProductID: &p.ID, Quantity: 1, Kind: models.ItemStandard}},
		DeliveryMethod: models.DeliveryMethodTakeaway,
	})
	require.NoError(t, err)
	require.Equal(t, lifecycle.Pending.String(), order.Status)
	return order
}
