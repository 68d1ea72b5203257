package repositories

import (
	"context"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/pkg/orm"
)

type ReviewRepository struct {
	q *orm.Query
}

func NewReviewRepository(q *orm.Query) *ReviewRepository {
	return &ReviewRepository{q: q}
}

// Latest lists reviews newest first with their author.
func (r *ReviewRepository) Latest(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := r.q.WithContext(ctx).
		Model(&models.Review{}).
		Preload("User").
		Order("created_at desc").
		Order("id desc").
		Get(&reviews)
	return reviews, err
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.q.WithContext(ctx).Create(review)
}

type CustomCakeRepository struct {
	q *orm.Query
}

func NewCustomCakeRepository(q *orm.Query) *CustomCakeRepository {
	return &CustomCakeRepository{q: q}
}

func (r *CustomCakeRepository) Create(ctx context.Context, c *models.CustomCake) error {
	return r.q.WithContext(ctx).Create(c)
}

func (r *CustomCakeRepository) Find(ctx context.Context, id uint) (models.CustomCake, error) {
	var c models.CustomCake
	err := r.q.WithContext(ctx).Model(&models.CustomCake{}).Where("id = ?", id).First(&c)
	return c, err
}
