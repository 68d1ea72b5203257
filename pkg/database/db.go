// Package database opens the GORM connection for the configured driver.
package database

import (
	"fmt"
	"time"

	"github.com/eadens/cakeworld/config"
	applog "github.com/eadens/cakeworld/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"
)

// DB is the process-wide connection set by Connect.
var DB *gorm.DB

// SlowQuery is the threshold above which GORM reports a query as slow.
const SlowQuery = 200 * time.Millisecond

var dialectors = map[string]func(dsn string) gorm.Dialector{
	"sqlite":    sqlite.Open,
	"postgres":  postgres.Open,
	"mysql":     mysql.Open,
	"sqlserver": sqlserver.Open,
}

func Connect() error {
	db, err := Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects without touching DB. Tests use it with a sqlite file under
// t.TempDir().
func Open(driver, dsn string) (*gorm.DB, error) {
	open, ok := dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}

	db, err := gorm.Open(open(dsn), &gorm.Config{Logger: queryLogger()})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)
	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("database: ping %s: %w", driver, err)
	}
	return db, nil
}

func Close() error {
	if DB == nil {
		return nil
	}
	pool, err := DB.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// slogWriter sends GORM's slow-query and error lines to the app logger.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...interface{}) {
	applog.Warn("database: " + fmt.Sprintf(format, args...))
}

func queryLogger() gormlog.Interface {
	return gormlog.New(slogWriter{}, gormlog.Config{
		SlowThreshold:             SlowQuery,
		LogLevel:                  gormlog.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
