package seeders

import (
	"fmt"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const placeholderImage = "/placeholder.svg?height=600&width=600"

func init() {
	Register("users", SeedUsers)
	Register("products", SeedProducts)
	Register("reviews", SeedReviews)
}

// Demo accounts.
const (
	AdminEmail    = "admin@eadenscakeworld.com"
	CustomerEmail = "customer@example.com"
)

// SeedUsers creates the demo admin and customer unless they already exist.
func SeedUsers(db *gorm.DB) error {
	users := []struct {
		user     models.User
		password string
	}{
		{models.User{Name: "Admin User", Email: AdminEmail, Role: models.RoleAdmin}, "admin123"},
		{models.User{
			Name:    "Test Customer",
			Email:   CustomerEmail,
			Role:    models.RoleCustomer,
			Address: "123 Test St, Test City, TC 12345",
			Phone:   "(123) 456-7890",
		}, "customer123"},
	}

	for _, u := range users {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		row := u.user
		row.Password = hash
		if err := db.Where(models.User{Email: row.Email}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("user %s: %w", row.Email, err)
		}
	}
	return nil
}

var cakeSizes = models.StringList{"6 inch", "8 inch", "10 inch"}

var catalog = []models.Product{
	{
		Name:        "Chocolate Delight",
		Description: "Rich chocolate cake with ganache frosting",
		LongDescription: "Indulge in our Chocolate Delight cake, a decadent treat for chocolate lovers. " +
			"Layers of moist chocolate sponge are filled with smooth chocolate ganache and covered in a rich chocolate frosting.",
		Price:       decimal.RequireFromString("35.99"),
		Category:    "chocolate",
		Sizes:       cakeSizes,
		Ingredients: models.StringList{"Flour", "Sugar", "Cocoa powder", "Eggs", "Butter", "Milk", "Vanilla extract"},
		Allergens:   models.StringList{"Eggs", "Dairy", "Gluten"},
	},
	{
		Name:        "Vanilla Dream",
		Description: "Light vanilla cake with buttercream frosting",
		LongDescription: "Our Vanilla Dream cake is a classic favorite, made with premium vanilla extract " +
			"and topped with our signature buttercream frosting.",
		Price:       decimal.RequireFromString("32.99"),
		Category:    "vanilla",
		Sizes:       cakeSizes,
		Ingredients: models.StringList{"Flour", "Sugar", "Eggs", "Butter", "Milk", "Vanilla extract"},
		Allergens:   models.StringList{"Eggs", "Dairy", "Gluten"},
	},
	{
		Name:        "Strawberry Bliss",
		Description: "Fresh strawberry cake with cream cheese frosting",
		LongDescription: "Real strawberries folded into the batter and topped with cream cheese frosting, " +
			"balancing sweetness and tang.",
		Price:       decimal.RequireFromString("38.99"),
		Category:    "fruit",
		Sizes:       cakeSizes,
		Ingredients: models.StringList{"Flour", "Sugar", "Eggs", "Butter", "Milk", "Fresh Strawberries", "Cream Cheese"},
		Allergens:   models.StringList{"Eggs", "Dairy", "Gluten"},
	},
	{
		Name:        "Red Velvet",
		Description: "Classic red velvet cake with cream cheese frosting",
		LongDescription: "Our Red Velvet cake is a timeless classic with a modern twist. " +
			"Deep red cake layers are complemented by a smooth cream cheese frosting.",
		Price:       decimal.RequireFromString("36.99"),
		Category:    "specialty",
		Sizes:       cakeSizes,
		Ingredients: models.StringList{
			"Flour", "Sugar", "Cocoa powder", "Eggs", "Butter", "Buttermilk", "Vinegar", "Red food coloring", "Cream Cheese",
		},
		Allergens: models.StringList{"Eggs", "Dairy", "Gluten"},
	},
}

// SeedProducts upserts the starter catalog by name.
func SeedProducts(db *gorm.DB) error {
	for _, p := range catalog {
		row := p
		row.Image = placeholderImage
		var existing models.Product
		err := db.Where("name = ?", row.Name).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
		}
		if err := db.Save(&row).Error; err != nil {
			return fmt.Errorf("product %s: %w", row.Name, err)
		}
	}
	return nil
}

// SeedReviews adds two sample reviews from the demo customer when the table
// is empty.
func SeedReviews(db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Review{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var customer models.User
	if err := db.Where("email = ?", CustomerEmail).First(&customer).Error; err != nil {
		return fmt.Errorf("reviews need the demo customer: %w", err)
	}
	reviews := []models.Review{
		{UserID: customer.ID, Rating: 5, Comment: "The birthday cake for my daughter was absolutely perfect! Everyone loved it."},
		{UserID: customer.ID, Rating: 4, Comment: "Great cake, but delivery was a bit late. Would order again though!"},
	}
	return db.Create(&reviews).Error
}
