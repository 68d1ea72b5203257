package migrations

import (
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260101000000_create_users_table", table(&models.User{}))
	migration.Register("20260101000001_create_products_table", table(&models.Product{}))
	migration.Register("20260101000002_create_orders_table", table(&models.Order{}))
	migration.Register("20260101000003_create_order_items_table", table(&models.OrderItem{}))
	migration.Register("20260101000004_create_order_status_changes_table", table(&models.OrderStatusChange{}))
	migration.Register("20260101000005_create_reviews_table", table(&models.Review{}))
	migration.Register("20260101000006_create_custom_cakes_table", table(&models.CustomCake{}))
}

// table creates one model's table and drops it on rollback.
func table(model interface{}) migration.Funcs {
	return migration.Funcs{
		UpFn:   func(db *gorm.DB) error { return db.AutoMigrate(model) },
		DownFn: func(db *gorm.DB) error { return db.Migrator().DropTable(model) },
	}
}
