// Package seeders fills a migrated database with the demo accounts, the
// starter catalog and sample reviews. Every seeder is idempotent.
package seeders

import (
	"fmt"
	"time"

	"github.com/eadens/cakeworld/pkg/logger"
	"gorm.io/gorm"
)

// Seeder writes its rows through db, which is a transaction.
type Seeder func(db *gorm.DB) error

type named struct {
	name string
	run  Seeder
}

// registry is only appended to from init, so it needs no lock.
var registry []named

func Register(name string, s Seeder) {
	registry = append(registry, named{name, s})
}

// Names lists the seeders in run order.
func Names() []string {
	out := make([]string, len(registry))
	for i, n := range registry {
		out[i] = n.name
	}
	return out
}

// RunAll runs each seeder in its own transaction, in registration order,
// and stops at the first failure. Seeders that already committed stay.
func RunAll(db *gorm.DB) error {
	for _, n := range registry {
		start := time.Now()
		if err := db.Transaction(func(tx *gorm.DB) error { return n.run(tx) }); err != nil {
			return fmt.Errorf("seed %s: %w", n.name, err)
		}
		logger.Info("seed: done", "seeder", n.name, "took", time.Since(start).Round(time.Millisecond))
	}
	return nil
}
