// Package cake prices custom cake configurations.
//
// Price is pure: the same Config always yields the same amount, surcharges
// are independent of each other, and values outside the option sets simply
// add nothing. Validate is the opt-in strict check.
package cake

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/shopspring/decimal"
)

// Free-text limits.
const (
	MaxMessageLen      = 100
	MaxInstructionsLen = 500
)

// Config is a customer's custom cake. It is immutable once attached to a
// cart item or order.
type Config struct {
	Flavor              string `json:"flavor"`
	Filling             string `json:"filling"`
	Frosting            string `json:"frosting"`
	Decoration          string `json:"decoration"`
	Shape               string `json:"shape"`
	Size                string `json:"size"`
	Color               string `json:"color"`
	Message             string `json:"message,omitempty"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// Option sets offered by the customizer.
var (
	Flavors     = []string{"Vanilla", "Chocolate", "Red Velvet", "Lemon", "Carrot", "Strawberry"}
	Fillings    = []string{"Buttercream", "Chocolate Ganache", "Cream Cheese", "Strawberry Jam", "Lemon Curd", "Caramel"}
	Frostings   = []string{"Buttercream", "Fondant", "Cream Cheese", "Whipped Cream", "Chocolate Ganache"}
	Decorations = []string{"Sprinkles", "Fresh Fruit", "Chocolate Shavings", "Edible Flowers", "Macarons", "None"}
	Shapes      = []string{"Round", "Square", "Rectangle", "Heart", "Custom"}
	Sizes       = []string{"6 inch", "8 inch", "10 inch", "12 inch", "Tiered (2 layers)", "Tiered (3 layers)"}
	Colors      = []string{"White", "Pink", "Blue", "Yellow", "Green", "Purple", "Rainbow", "Custom"}
)

// Default is the customizer's starting configuration.
var Default = Config{
	Flavor:     "Vanilla",
	Filling:    "Buttercream",
	Frosting:   "Buttercream",
	Decoration: "Sprinkles",
	Shape:      "Round",
	Size:       "8 inch",
	Color:      "White",
}

var (
	BasePrice = decimal.RequireFromString("35.99")

	sizeSurcharge = map[string]decimal.Decimal{
		"10 inch":           decimal.NewFromInt(10),
		"12 inch":           decimal.NewFromInt(15),
		"Tiered (2 layers)": decimal.NewFromInt(25),
		"Tiered (3 layers)": decimal.NewFromInt(40),
	}

	premiumFlavors     = []string{"Red Velvet", "Carrot"}
	premiumFillings    = []string{"Chocolate Ganache", "Caramel"}
	premiumDecorations = []string{"Fresh Fruit", "Macarons", "Edible Flowers"}

	flavorSurcharge     = decimal.NewFromInt(5)
	fillingSurcharge    = decimal.NewFromInt(3)
	fondantSurcharge    = decimal.NewFromInt(8)
	decorationSurcharge = decimal.NewFromInt(7)
)

// Surcharge is one line of a price breakdown.
type Surcharge struct {
	Option string          `json:"option"`
	Value  string          `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

// Surcharges lists every surcharge cfg attracts, in a fixed order.
func Surcharges(cfg Config) []Surcharge {
	var out []Surcharge
	if amt, ok := sizeSurcharge[cfg.Size]; ok {
		out = append(out, Surcharge{Option: "size", Value: cfg.Size, Amount: amt})
	}
	if slices.Contains(premiumFlavors, cfg.Flavor) {
		out = append(out, Surcharge{Option: "flavor", Value: cfg.Flavor, Amount: flavorSurcharge})
	}
	if slices.Contains(premiumFillings, cfg.Filling) {
		out = append(out, Surcharge{Option: "filling", Value: cfg.Filling, Amount: fillingSurcharge})
	}
	if cfg.Frosting == "Fondant" {
		out = append(out, Surcharge{Option: "frosting", Value: cfg.Frosting, Amount: fondantSurcharge})
	}
	if slices.Contains(premiumDecorations, cfg.Decoration) {
		out = append(out, Surcharge{Option: "decoration", Value: cfg.Decoration, Amount: decorationSurcharge})
	}
	return out
}

// Price is BasePrice plus every surcharge, rounded to cents.
func Price(cfg Config) decimal.Decimal {
	total := BasePrice
	for _, s := range Surcharges(cfg) {
		total = total.Add(s.Amount)
	}
	return total.Round(2)
}

// Validate checks the free-text limits and, when strict is set, that every
// option comes from its option set.
func (c Config) Validate(strict bool) error {
	fields := map[string]string{}

	if utf8.RuneCountInString(c.Message) > MaxMessageLen {
		fields["message"] = fmt.Sprintf("The message must not exceed %d characters.", MaxMessageLen)
	}
	if utf8.RuneCountInString(c.SpecialInstructions) > MaxInstructionsLen {
		fields["specialInstructions"] = fmt.Sprintf("The special instructions must not exceed %d characters.", MaxInstructionsLen)
	}

	if strict {
		check := func(field, value string, set []string) {
			if !slices.Contains(set, value) {
				fields[field] = fmt.Sprintf("The selected %s is invalid.", field)
			}
		}
		check("flavor", c.Flavor, Flavors)
		check("filling", c.Filling, Fillings)
		check("frosting", c.Frosting, Frostings)
		check("decoration", c.Decoration, Decorations)
		check("shape", c.Shape, Shapes)
		check("size", c.Size, Sizes)
		check("color", c.Color, Colors)
	}

	if len(fields) > 0 {
		return apperr.Validation("cake.Validate", "invalid cake options", fields)
	}
	return nil
}

// Name is the cart/order line label for a custom cake.
func (c Config) Name() string {
	if c.Flavor == "" {
		return "Custom Cake"
	}
	return fmt.Sprintf("Custom %s Cake", c.Flavor)
}
