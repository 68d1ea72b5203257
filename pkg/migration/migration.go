// Package migration applies the schema in named, batched steps and records
// each applied step in the cakeworld_migrations table.
//
// Steps register from init() in database/migrations and run in name order,
// so names carry a sortable timestamp prefix:
//
//	migration.Register("20260101000002_create_orders_table", step)
package migration

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/eadens/cakeworld/pkg/logger"
	"gorm.io/gorm"
)

// Migration is one reversible schema step.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// Funcs adapts a pair of functions to Migration.
type Funcs struct {
	UpFn   func(db *gorm.DB) error
	DownFn func(db *gorm.DB) error
}

func (f Funcs) Up(db *gorm.DB) error   { return f.UpFn(db) }
func (f Funcs) Down(db *gorm.DB) error { return f.DownFn(db) }

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null;index"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "cakeworld_migrations" }

var registry = map[string]Migration{}

// Register adds a step. Registering the same name twice panics.
func Register(name string, m Migration) {
	if _, dup := registry[name]; dup {
		panic("migration: duplicate step " + name)
	}
	registry[name] = m
}

// Names lists the registered steps in run order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Entry is one row of Status.
type Entry struct {
	Name  string
	Batch int // 0 while pending
	RunAt time.Time
}

func (e Entry) Pending() bool { return e.Batch == 0 }

type Runner struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) applied() (map[string]record, error) {
	if err := r.db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migration: prepare table: %w", err)
	}
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read table: %w", err)
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

// Run applies every pending step as one new batch and returns their names.
// Each step and its record commit together; a failing step stops the run
// with the earlier steps of the batch kept.
func (r *Runner) Run() ([]string, error) {
	done, err := r.applied()
	if err != nil {
		return nil, err
	}

	batch := 1
	for _, row := range done {
		batch = max(batch, row.Batch+1)
	}

	var ran []string
	for _, name := range Names() {
		if _, ok := done[name]; ok {
			continue
		}
		step := registry[name]
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: name, Batch: batch}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration: %s: %w", name, err)
		}
		logger.Info("migration: applied", "name", name, "batch", batch)
		ran = append(ran, name)
	}
	return ran, nil
}

// Rollback reverts the latest batch, newest step first, and returns the
// reverted names.
func (r *Runner) Rollback() ([]string, error) {
	done, err := r.applied()
	if err != nil {
		return nil, err
	}

	last := 0
	for _, row := range done {
		last = max(last, row.Batch)
	}
	var rows []record
	for _, row := range done {
		if row.Batch == last && last > 0 {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b record) int { return strings.Compare(b.Name, a.Name) })

	var reverted []string
	for _, row := range rows {
		step, ok := registry[row.Name]
		if !ok {
			return reverted, fmt.Errorf("migration: %s is recorded but not registered", row.Name)
		}
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := step.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, row.ID).Error
		})
		if err != nil {
			return reverted, fmt.Errorf("migration: %s: %w", row.Name, err)
		}
		logger.Info("migration: reverted", "name", row.Name, "batch", last)
		reverted = append(reverted, row.Name)
	}
	return reverted, nil
}

// Status reports every registered step in run order.
func (r *Runner) Status() ([]Entry, error) {
	done, err := r.applied()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, name := range Names() {
		e := Entry{Name: name}
		if row, ok := done[name]; ok {
			e.Batch, e.RunAt = row.Batch, row.RunAt
		}
		out = append(out, e)
	}
	return out, nil
}
