package cake_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/pkg/apperr"
)

func TestPriceTwelveInchRedVelvetFondant(t *testing.T) {
	cfg := cake.Config{
		Size:       "12 inch",
		Flavor:     "Red Velvet",
		Filling:    "Buttercream",
		Frosting:   "Fondant",
		Decoration: "None",
	}
	assert.Equal(t, "63.99", cake.Price(cfg).StringFixed(2))
}

func TestPriceBaseForSmallSizes(t *testing.T) {
	for _, size := range []string{"6 inch", "8 inch"} {
		cfg := cake.Default
		cfg.Size = size
		cfg.Decoration = "None"
		assert.True(t, cake.Price(cfg).Equal(cake.BasePrice), size)
	}
}

func TestPriceEverySurcharge(t *testing.T) {
	cfg := cake.Config{
		Size:       "Tiered (3 layers)",
		Flavor:     "Carrot",
		Filling:    "Caramel",
		Frosting:   "Fondant",
		Decoration: "Macarons",
	}
	// 35.99 + 40 + 5 + 3 + 8 + 7
	assert.Equal(t, "98.99", cake.Price(cfg).StringFixed(2))
	assert.Len(t, cake.Surcharges(cfg), 5)
}

func TestPriceIgnoresUnknownOptions(t *testing.T) {
	cfg := cake.Config{Size: "14 inch", Flavor: "Pistachio", Frosting: "fondant"}
	assert.True(t, cake.Price(cfg).Equal(cake.BasePrice))
}

func TestPriceIgnoresFreeText(t *testing.T) {
	a := cake.Default
	b := cake.Default
	b.Message = "Happy Birthday"
	b.SpecialInstructions = strings.Repeat("x", 400)
	assert.True(t, cake.Price(a).Equal(cake.Price(b)))
}

func TestPriceIsSumOfSurchargesInAnyOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pick := func(set []string) string { return set[rng.Intn(len(set))] }

	for i := 0; i < 200; i++ {
		cfg := cake.Config{
			Flavor: pick(cake.Flavors), Filling: pick(cake.Fillings), Frosting: pick(cake.Frostings),
			Decoration: pick(cake.Decorations), Shape: pick(cake.Shapes), Size: pick(cake.Sizes), Color: pick(cake.Colors),
		}
		parts := cake.Surcharges(cfg)
		rng.Shuffle(len(parts), func(i, j int) { parts[i], parts[j] = parts[j], parts[i] })

		sum := cake.BasePrice
		for _, p := range parts {
			sum = sum.Add(p.Amount)
		}
		require.True(t, sum.Equal(cake.Price(cfg)), "%+v", cfg)
		require.True(t, cake.Price(cfg).Equal(cake.Price(cfg)))
	}
}

func TestValidatePermissive(t *testing.T) {
	cfg := cake.Config{Flavor: "Pistachio"}
	assert.NoError(t, cfg.Validate(false))
}

func TestValidateStrict(t *testing.T) {
	cfg := cake.Default
	cfg.Flavor = "Pistachio"

	err := cfg.Validate(true)
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.ValidationFailed, e.Kind)
	assert.Contains(t, e.Fields, "flavor")
	assert.NoError(t, cake.Default.Validate(true))
}

func TestValidateFreeTextLimits(t *testing.T) {
	cfg := cake.Default
	cfg.Message = strings.Repeat("a", cake.MaxMessageLen+1)
	cfg.SpecialInstructions = strings.Repeat("b", cake.MaxInstructionsLen+1)

	e, ok := apperr.As(cfg.Validate(false))
	require.True(t, ok)
	assert.Contains(t, e.Fields, "message")
	assert.Contains(t, e.Fields, "specialInstructions")
}

func TestBasePriceExact(t *testing.T) {
	assert.True(t, cake.BasePrice.Equal(decimal.RequireFromString("35.99")))
}
