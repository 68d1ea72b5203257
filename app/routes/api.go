package routes

import (
	"github.com/eadens/cakeworld/app/controllers"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/ctx"
	"github.com/eadens/cakeworld/pkg/middleware"
	"github.com/eadens/cakeworld/pkg/orm"
	"github.com/eadens/cakeworld/pkg/rbac"
	"github.com/eadens/cakeworld/pkg/router"
)

// Services bundles the application services the routes are bound to.
type Services struct {
	Auth     *services.AuthService
	Orders   *services.OrderService
	Products *services.ProductService
	Reviews  *services.ReviewService
	Cakes    *services.CakeService
}

// NewServices wires repositories and services over q using the environment
// configuration.
func NewServices(q *orm.Query) *Services {
	products := repositories.NewProductRepository(q)
	return &Services{
		Auth:     services.NewAuthService(repositories.NewUserRepository(q)),
		Orders:   services.NewOrderService(repositories.NewOrderRepository(q), products, services.OrderOptionsFromConfig()),
		Products: services.NewProductService(products, nil),
		Reviews:  services.NewReviewService(repositories.NewReviewRepository(q)),
		Cakes:    services.NewCakeService(repositories.NewCustomCakeRepository(q), config.CakeStrictOptions()),
	}
}

func RegisterAPI(r *router.Router, s *Services) {
	authController := controllers.NewAuthController(s.Auth)
	orderController := controllers.NewOrderController(s.Orders)
	productController := controllers.NewProductController(s.Products)
	cakeController := controllers.NewCakeController(s.Cakes)
	reviewController := controllers.NewReviewController(s.Reviews)

	api := r.Group("/api", middleware.Authenticate)
	user := api.Group("", middleware.AuthMiddleware)
	admin := api.Group("", middleware.AuthMiddleware, rbac.HasRole(auth.RoleAdmin))

	api.Post("/auth/register", "auth.register", ctx.Wrap(authController.Register))
	api.Post("/auth/login", "auth.login", ctx.Wrap(authController.Login))
	api.Post("/auth/logout", "auth.logout", ctx.Wrap(authController.Logout))
	user.Get("/auth/me", "auth.me", ctx.Wrap(authController.Me))

	api.Get("/products", "products.index", ctx.Wrap(productController.Index))
	api.Get("/products/{id}", "products.show", ctx.Wrap(productController.Show))
	admin.Post("/products", "products.store", ctx.Wrap(productController.Store))
	admin.Patch("/products/{id}", "products.update", ctx.Wrap(productController.Update))
	admin.Delete("/products/{id}", "products.destroy", ctx.Wrap(productController.Destroy))
	admin.Post("/products/{id}/image", "products.image", ctx.Wrap(productController.UploadImage))

	api.Post("/custom-cakes/price", "cakes.price", ctx.Wrap(cakeController.Price))
	api.Post("/custom-cakes", "cakes.store", ctx.Wrap(cakeController.Store))

	user.Post("/orders", "orders.store", ctx.Wrap(orderController.Store))
	admin.Get("/orders", "orders.index", ctx.Wrap(orderController.Index))
	user.Get("/orders/mine", "orders.mine", ctx.Wrap(orderController.Mine))
	user.Get("/orders/{id}", "orders.show", ctx.Wrap(orderController.Show))
	admin.Patch("/orders/{id}", "orders.update", ctx.Wrap(orderController.Update))

	api.Get("/reviews", "reviews.index", ctx.Wrap(reviewController.Index))
	user.Post("/reviews", "reviews.store", ctx.Wrap(reviewController.Store))
}
