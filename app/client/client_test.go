package client_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/client"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/app/routes"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/database"
	"github.com/eadens/cakeworld/pkg/orm"
	"github.com/eadens/cakeworld/pkg/router"
)

type env struct {
	srv     *httptest.Server
	q       *orm.Query
	product models.Product
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{},
		&models.OrderStatusChange{}, &models.Review{}, &models.CustomCake{},
	))
	q := orm.Use(db)

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	require.NoError(t, q.Create(&models.User{Name: "Admin User", Email: "admin@example.com", Password: hash, Role: models.RoleAdmin}))

	p := models.Product{Name: "Chocolate Delight", Price: decimal.RequireFromString("35.99"), Category: "chocolate"}
	require.NoError(t, repositories.NewProductRepository(q).Create(context.Background(), &p))

	r := router.New()
	routes.RegisterAPI(r, routes.NewServices(q))
	srv := httptest.NewServer(r.Handler())

	t.Cleanup(func() {
		srv.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &env{srv: srv, q: q, product: p}
}

func (e *env) customer(t *testing.T) *client.Client {
	t.Helper()
	c := client.New(e.srv.URL, "")
	_, err := c.Register(context.Background(), services.RegisterInput{
		Name: "Test Customer", Email: "customer@example.com", Password: "customer123",
	})
	require.NoError(t, err)
	return c
}

func (e *env) admin(t *testing.T) *client.Client {
	t.Helper()
	c := client.New(e.srv.URL, "")
	_, err := c.Login(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)
	return c
}

func (e *env) order(t *testing.T, c *client.Client) models.Order {
	t.Helper()
	o, err := c.CreateOrder(context.Background(), services.CreateOrderInput{
		Items:          []services.OrderItemInput{{ProductID: &e.product.ID, Quantity: 2, Kind: models.ItemStandard}},
		DeliveryMethod: models.DeliveryMethodTakeaway,
	})
	require.NoError(t, err)
	return o
}

func TestSessionRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t)
	assert.True(t, c.Authenticated())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "customer@example.com", me.Email)
	assert.Equal(t, models.RoleCustomer, me.Role)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.Authenticated())

	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
}

func TestBadLoginIsAuthenticationFailure(t *testing.T) {
	e := newEnv(t)
	c := client.New(e.srv.URL, "")
	_, err := c.Login(context.Background(), "admin@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
	assert.False(t, c.Authenticated())
}

func TestAnonymousOrderRejectedWithoutWrite(t *testing.T) {
	e := newEnv(t)
	c := client.New(e.srv.URL, "")

	_, err := c.CreateOrder(context.Background(), services.CreateOrderInput{
		Items:          []services.OrderItemInput{{ProductID: &e.product.ID, Quantity: 1, Kind: models.ItemStandard}},
		DeliveryMethod: models.DeliveryMethodTakeaway,
	})
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)

	var n int64
	require.NoError(t, e.q.Model(&models.Order{}).Count(&n))
	assert.Zero(t, n)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	customer := e.customer(t)
	admin := e.admin(t)

	o := e.order(t, customer)
	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, "71.98", o.Total.StringFixed(2))
	require.Len(t, o.Items, 1)

	_, err := customer.ListOrders(ctx, "PENDING", "")
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)

	_, err = customer.TransitionOrder(ctx, o.ID, services.TransitionInput{Status: "APPROVED"})
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)

	pending, err := admin.ListOrders(ctx, "PENDING", "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, o.ID, pending[0].ID)

	approved, err := admin.TransitionOrder(ctx, o.ID, services.TransitionInput{Status: "APPROVED", Version: pending[0].Version})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)

	_, err = admin.TransitionOrder(ctx, o.ID, services.TransitionInput{Status: "COMPLETED", Version: pending[0].Version})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = admin.TransitionOrder(ctx, o.ID, services.TransitionInput{Status: "CANCELLED"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTransition, ae.Code)

	mine, err := customer.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "APPROVED", mine[0].Status)

	got, err := customer.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.Version, got.Version)
}

func TestValidationFieldsSurvive(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t)
	_, err := c.CreateOrder(context.Background(), services.CreateOrderInput{
		Items:          []services.OrderItemInput{{ProductID: &e.product.ID, Quantity: 1, Kind: models.ItemStandard}},
		DeliveryMethod: models.DeliveryMethodDelivery,
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.ValidationFailed, ae.Kind)
	assert.Contains(t, ae.Fields, "address")
}

func TestCakePriceOverHTTP(t *testing.T) {
	e := newEnv(t)
	cfg := cake.Default
	cfg.Flavor = "Red Velvet"
	cfg.Size = "10 inch"
	cfg.Frosting = "Fondant"
	cfg.Decoration = "Fresh Fruit"

	q, err := client.New(e.srv.URL, "").PriceCake(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "65.99", q.Price.StringFixed(2))
	assert.Len(t, q.Surcharges, 4)
}

func TestUnreachableServerIsUpstream(t *testing.T) {
	srv := httptest.NewServer(nil)
	base := srv.URL
	srv.Close()

	_, err := client.New(base, "").Products(context.Background(), "")
	assert.True(t, apperr.IsKind(err, apperr.UpstreamFailure))
	assert.True(t, apperr.IsRetryable(err))
}
