// Package orm is a thin fluent wrapper over *gorm.DB used by the
// repositories. Each call returns a new Query, so a base Query can be shared.
//
//	var orders []models.Order
//	err := orm.Use(db).WithContext(ctx).
//	    Model(&models.Order{}).
//	    Where("status = ?", "PENDING").
//	    Order("created_at desc").
//	    Get(&orders)
package orm

import (
	"context"
	"time"

	"github.com/eadens/cakeworld/pkg/cache"
	"github.com/eadens/cakeworld/pkg/database"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/metrics"
	"gorm.io/gorm"
)

type Query struct {
	db *gorm.DB
}

// DB wraps the process-wide connection opened by database.Connect.
func DB() *Query {
	return &Query{db: database.DB}
}

// Use wraps an explicit connection.
func Use(db *gorm.DB) *Query {
	return &Query{db: db}
}

// Gorm exposes the underlying handle for anything the wrapper does not cover.
func (q *Query) Gorm() *gorm.DB { return q.db }

func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value string) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Preload(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Preload(query, args...)}
}

func (q *Query) Get(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.First(dest).Error
}

func (q *Query) Count(n *int64) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Count(n).Error
}

func (q *Query) Create(v interface{}) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return q.db.Create(v).Error
}

func (q *Query) Save(v interface{}) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return q.db.Save(v).Error
}

// Updates applies values to the rows matched so far and reports how many
// rows changed, which is what conditional (compare-and-set) updates need.
func (q *Query) Updates(values interface{}) (int64, error) {
	defer metrics.ObserveDBQuery("update", time.Now())
	res := q.db.Updates(values)
	return res.RowsAffected, res.Error
}

func (q *Query) Delete(v interface{}, conds ...interface{}) error {
	defer metrics.ObserveDBQuery("delete", time.Now())
	return q.db.Delete(v, conds...).Error
}

// Transaction runs fn inside a database transaction. Returning an error
// rolls back.
func (q *Query) Transaction(fn func(tx *Query) error) error {
	return q.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Query{db: tx})
	})
}

// Cache serves dest from the cache when present, otherwise runs the query
// and caches the result for ttl.
func (q *Query) Cache(key string, ttl time.Duration, dest interface{}) error {
	ctx := q.db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if cache.Get(ctx, key, dest) {
		return nil
	}
	if err := q.Get(dest); err != nil {
		return err
	}
	if err := cache.Set(ctx, key, dest, ttl); err != nil {
		logger.WithCtx(ctx).Warn("orm: cache write failed", "key", key, "error", err)
	}
	return nil
}
