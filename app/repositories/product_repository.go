package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/pkg/cache"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/orm"
)

const (
	productCachePrefix = "products:"
	productCacheTTL    = 5 * time.Minute
)

// ProductRepository reads the catalog through the redis cache.
type ProductRepository struct {
	q *orm.Query
}

func NewProductRepository(q *orm.Query) *ProductRepository {
	return &ProductRepository{q: q}
}

// All lists products by name. An empty category or "all" lists everything.
func (r *ProductRepository) All(ctx context.Context, category string) ([]models.Product, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "all" {
		category = ""
	}

	q := r.q.WithContext(ctx).Model(&models.Product{}).Order("name asc")
	key := productCachePrefix + "all"
	if category != "" {
		q = q.Where("category = ?", category)
		key = productCachePrefix + "category:" + category
	}

	var products []models.Product
	err := q.Cache(key, productCacheTTL, &products)
	return products, err
}

func (r *ProductRepository) Find(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := r.q.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).First(&p)
	return p, err
}

// FindMany returns the products with the given ids keyed by id.
func (r *ProductRepository) FindMany(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.q.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Get(&products); err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if err := r.q.WithContext(ctx).Create(p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	if err := r.q.WithContext(ctx).Save(p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	if err := r.q.WithContext(ctx).Delete(&models.Product{}, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *ProductRepository) invalidate(ctx context.Context) {
	if err := cache.ForgetPrefix(ctx, productCachePrefix); err != nil {
		logger.WithCtx(ctx).Warn("products: cache invalidation failed", "error", err)
	}
}
