package services

import (
	"context"
	"strings"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/auth"
)

type ReviewInput struct {
	Rating  int    `json:"rating"  validate:"required,between=1,5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

type ReviewService struct {
	reviews *repositories.ReviewRepository
}

func NewReviewService(reviews *repositories.ReviewRepository) *ReviewService {
	return &ReviewService{reviews: reviews}
}

func (s *ReviewService) List(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.reviews.Latest(ctx)
	return reviews, dbErr(ctx, "reviews.List", err, "")
}

func (s *ReviewService) Create(ctx context.Context, p auth.Principal, in ReviewInput) (models.Review, error) {
	const op = "reviews.Create"
	if err := requireUser(op, p.Anonymous(), "you must be logged in to submit a review"); err != nil {
		return models.Review{}, err
	}
	fields := map[string]string{}
	if in.Rating < 1 || in.Rating > 5 {
		fields["rating"] = "The rating must be between 1 and 5."
	}
	if strings.TrimSpace(in.Comment) == "" {
		fields["comment"] = "The comment field is required."
	}
	if len(fields) > 0 {
		return models.Review{}, apperr.Validation(op, "rating and comment are required", fields)
	}

	review := models.Review{UserID: p.UserID, Rating: in.Rating, Comment: strings.TrimSpace(in.Comment)}
	if err := s.reviews.Create(ctx, &review); err != nil {
		return models.Review{}, dbErr(ctx, op, err, "")
	}
	return review, nil
}
