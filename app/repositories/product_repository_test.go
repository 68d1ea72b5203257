package repositories_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/pkg/cache"
	"github.com/eadens/cakeworld/pkg/database"
	"github.com/eadens/cakeworld/pkg/orm"
)

func TestCatalogReadsThroughCache(t *testing.T) {
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.Use(client)
	t.Cleanup(func() {
		cache.Use(nil)
		client.Close()
	})

	ctx := context.Background()
	repo := repositories.NewProductRepository(orm.Use(db))
	require.NoError(t, repo.Create(ctx, &models.Product{Name: "Vanilla Dream", Price: decimal.RequireFromString("32.99"), Category: "vanilla"}))

	list, err := repo.All(ctx, "all")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists("cakeworld:products:all"))

	// Written behind the repository's back, so the cached list is served.
	require.NoError(t, db.Create(&models.Product{Name: "Lemon Zest", Price: decimal.RequireFromString("30.00"), Category: "fruit"}).Error)
	list, err = repo.All(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Create(ctx, &models.Product{Name: "Red Velvet", Price: decimal.RequireFromString("36.99"), Category: "specialty"}))
	assert.False(t, mr.Exists("cakeworld:products:all"))

	list, err = repo.All(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Lemon Zest", list[0].Name)
	assert.Equal(t, "32.99", list[2].Price.StringFixed(2))
}
