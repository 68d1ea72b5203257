package services

import (
	"context"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/shopspring/decimal"
)

// Quote is a price preview with its breakdown.
type Quote struct {
	Base       decimal.Decimal  `json:"base"`
	Surcharges []cake.Surcharge `json:"surcharges"`
	Price      decimal.Decimal  `json:"price"`
}

// SavedQuote is a persisted custom cake and its price.
type SavedQuote struct {
	CustomCake models.CustomCake `json:"customCake"`
	Price      decimal.Decimal   `json:"price"`
}

type CakeService struct {
	cakes  *repositories.CustomCakeRepository
	strict bool
}

func NewCakeService(cakes *repositories.CustomCakeRepository, strict bool) *CakeService {
	return &CakeService{cakes: cakes, strict: strict}
}

// Preview prices cfg without persisting anything.
func (s *CakeService) Preview(cfg cake.Config) (Quote, error) {
	if err := cfg.Validate(s.strict); err != nil {
		return Quote{}, err
	}
	surcharges := cake.Surcharges(cfg)
	if surcharges == nil {
		surcharges = []cake.Surcharge{}
	}
	return Quote{Base: cake.BasePrice, Surcharges: surcharges, Price: cake.Price(cfg)}, nil
}

// Save persists a quote. Guests may quote; the owner is recorded when known.
func (s *CakeService) Save(ctx context.Context, p auth.Principal, cfg cake.Config) (SavedQuote, error) {
	if err := cfg.Validate(s.strict); err != nil {
		return SavedQuote{}, err
	}
	cc := models.CustomCake{Config: cfg, Price: cake.Price(cfg)}
	if !p.Anonymous() {
		uid := p.UserID
		cc.UserID = &uid
	}
	if err := s.cakes.Create(ctx, &cc); err != nil {
		return SavedQuote{}, dbErr(ctx, "cakes.Save", err, "")
	}
	return SavedQuote{CustomCake: cc, Price: cc.Price}, nil
}
