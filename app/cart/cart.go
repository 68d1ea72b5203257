// Package cart is the client-held shopping cart. Every mutation saves the
// whole cart through its Store before returning.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/storage"
	"github.com/shopspring/decimal"
)

// Item is one cart line. Custom is set only for custom cakes.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Kind      string          `json:"kind"`
	Custom    *cake.Config    `json:"customOptions,omitempty"`
}

// LineTotal is unit price × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// key identifies lines that merge on Add.
func (i Item) key() string {
	opts := ""
	if i.Custom != nil {
		b, _ := json.Marshal(i.Custom)
		opts = string(b)
	}
	return i.ID + "\x00" + i.Kind + "\x00" + opts
}

// Store persists the full list of lines.
type Store interface {
	Load() ([]Item, error)
	Save(items []Item) error
}

type Cart struct {
	mu    sync.Mutex
	items []Item
	store Store
}

// Load rehydrates a cart from store. Missing or unreadable data yields an
// empty cart.
func Load(store Store) *Cart {
	items, err := store.Load()
	if err != nil {
		logger.Warn("cart: stored cart unreadable, starting empty", "error", err)
		items = nil
	}
	valid := items[:0]
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 {
			continue
		}
		valid = append(valid, it)
	}
	return &Cart{items: valid, store: store}
}

// Add increments the matching line by one, or appends item with quantity 1.
func (c *Cart) Add(item Item) error {
	if item.ID == "" {
		return apperr.Validation("cart.Add", "item id is required", map[string]string{"id": "The id field is required."})
	}
	if item.Kind == "" {
		item.Kind = models.ItemStandard
	}
	if item.Kind == models.ItemCustom && item.Custom == nil {
		return apperr.Validation("cart.Add", "custom items need cake options", map[string]string{"customOptions": "The cake options are required."})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := item.key()
	for i := range c.items {
		if c.items[i].key() == k {
			c.items[i].Quantity++
			return c.save()
		}
	}
	item.Quantity = 1
	c.items = append(c.items, item)
	return c.save()
}

// Remove deletes every line with id. Unknown ids are a no-op.
func (c *Cart) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
	return c.save()
}

// UpdateQuantity sets the quantity of the lines with id, clamped to at
// least 1. It never removes a line.
func (c *Cart) UpdateQuantity(id string, q int) error {
	if q < 1 {
		q = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = q
		}
	}
	return c.save()
}

// Clear empties the cart. Only checkout calls it, after a successful order.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return c.save()
}

// Subtotal sums every line total.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Items returns a copy of the lines.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...)
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count is the total quantity across lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) save() error {
	if err := c.store.Save(append([]Item(nil), c.items...)); err != nil {
		return apperr.Wrap("cart.save", apperr.PersistenceFailure, err, "could not save the cart")
	}
	return nil
}

// ── Stores ───────────────────────────────────────────────────────────────────

const cartKey = "cart.json"

// DiskStore keeps the cart as JSON on a storage disk.
type DiskStore struct {
	disk storage.Disk
	key  string
}

func NewDiskStore(disk storage.Disk) *DiskStore {
	return &DiskStore{disk: disk, key: cartKey}
}

func (s *DiskStore) Load() ([]Item, error) {
	raw, err := s.disk.Get(context.Background(), s.key)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("cart: decode %s: %w", s.key, err)
	}
	return items, nil
}

func (s *DiskStore) Save(items []Item) error {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.disk.Put(context.Background(), s.key, bytes.NewReader(raw), "application/json")
}

// MemoryStore keeps the serialized cart in memory.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func (s *MemoryStore) Load() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.raw) == 0 {
		return nil, nil
	}
	var items []Item
	err := json.Unmarshal(s.raw, &items)
	return items, err
}

func (s *MemoryStore) Save(items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
	return nil
}

// Raw returns the last saved bytes.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.raw...)
}

// SetRaw replaces the stored bytes, for simulating corrupt storage.
func (s *MemoryStore) SetRaw(raw []byte) {
	s.mu.Lock()
	s.raw = append([]byte(nil), raw...)
	s.mu.Unlock()
}
