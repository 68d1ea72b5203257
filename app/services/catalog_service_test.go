package services_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/storage"
)

func strPtr(s string) *string { return &s }

func TestAuthRegisterAndLogin(t *testing.T) {
	f := newFixture(t, services.OrderOptions{})
	svc := services.NewAuthService(repositories.NewUserRepository(f.q))
	ctx := context.Background()

	sess, err := svc.Register(ctx, services.RegisterInput{Name: "Ada", Email: "Ada@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sess.User.Email)
	assert.Equal(t, auth.RoleCustomer, sess.User.Role)

	claims, err := auth.ValidateToken(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)

	_, err = svc.Register(ctx, services.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	_, err = svc.Login(ctx, services.LoginInput{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
	_, err = svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)

	sess, err = svc.Login(ctx, services.LoginInput{Email: "ADA@example.com", Password: "secret123"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, auth.Principal{UserID: sess.User.ID, Role: sess.User.Role})
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
}

func TestProductCRUDRequiresAdmin(t *testing.T) {
	f := newFixture(t, services.OrderOptions{})
	disk := storage.NewLocalDisk(t.TempDir(), "http://localhost/storage")
	svc := services.NewProductService(f.products, disk)
	ctx := context.Background()
	price := decimal.RequireFromString("35.99")

	_, err := svc.Create(ctx, f.customer, services.ProductInput{Name: strPtr("Chocolate Delight"), Price: &price})
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)

	_, err = svc.Create(ctx, f.admin, services.ProductInput{Name: strPtr(" ")})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, e.Fields, "name")
	assert.Contains(t, e.Fields, "price")

	p, err := svc.Create(ctx, f.admin, services.ProductInput{
		Name: strPtr("Chocolate Delight"), Price: &price, Category: strPtr("Chocolate"),
		Sizes: []string{"6 inch", "8 inch"},
	})
	require.NoError(t, err)
	assert.Equal(t, "chocolate", p.Category)

	list, err := svc.List(ctx, "chocolate")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"6 inch", "8 inch"}, []string(list[0].Sizes))

	list, err = svc.List(ctx, "vanilla")
	require.NoError(t, err)
	assert.Empty(t, list)

	p, err = svc.Update(ctx, f.admin, p.ID, services.ProductInput{Description: strPtr("Rich")})
	require.NoError(t, err)
	assert.Equal(t, "Rich", p.Description)
	assert.Equal(t, "Chocolate Delight", p.Name)

	p, err = svc.UploadImage(ctx, f.admin, p.ID, "cake.png", "image/png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(p.Image, "http://localhost/storage/products/"))
	key := p.Image[strings.Index(p.Image, "products/"):]
	found, err := disk.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = svc.UploadImage(ctx, f.admin, p.ID, "cake.exe", "application/octet-stream", bytes.NewReader(nil))
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	require.NoError(t, svc.Delete(ctx, f.admin, p.ID))
	found, err = disk.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReviews(t *testing.T) {
	f := newFixture(t, services.OrderOptions{})
	svc := services.NewReviewService(repositories.NewReviewRepository(f.q))
	ctx := context.Background()

	_, err := svc.Create(ctx, auth.Principal{}, services.ReviewInput{Rating: 5, Comment: "Lovely"})
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)

	_, err = svc.Create(ctx, f.customer, services.ReviewInput{Rating: 6, Comment: "Lovely"})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	_, err = svc.Create(ctx, f.customer, services.ReviewInput{Rating: 5, Comment: "Perfect birthday cake"})
	require.NoError(t, err)

	reviews, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].Author)
	assert.Equal(t, "Test Customer", reviews[0].Author.Name)
	assert.Empty(t, reviews[0].Author.Email)
}

func TestCakeQuotes(t *testing.T) {
	f := newFixture(t, services.OrderOptions{})
	svc := services.NewCakeService(repositories.NewCustomCakeRepository(f.q), false)
	cfg := cake.Config{Size: "12 inch", Flavor: "Red Velvet", Filling: "Buttercream", Frosting: "Fondant", Decoration: "None"}

	q, err := svc.Preview(cfg)
	require.NoError(t, err)
	assert.Equal(t, "63.99", q.Price.StringFixed(2))
	assert.Len(t, q.Surcharges, 3)

	saved, err := svc.Save(context.Background(), auth.Principal{}, cfg)
	require.NoError(t, err)
	assert.NotZero(t, saved.CustomCake.ID)
	assert.Nil(t, saved.CustomCake.UserID)
	assert.Equal(t, "63.99", saved.Price.StringFixed(2))

	saved, err = svc.Save(context.Background(), f.customer, cfg)
	require.NoError(t, err)
	require.NotNil(t, saved.CustomCake.UserID)
	assert.Equal(t, f.customer.UserID, *saved.CustomCake.UserID)

	strict := services.NewCakeService(repositories.NewCustomCakeRepository(f.q), true)
	_, err = strict.Preview(cake.Config{Flavor: "Pistachio"})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}
