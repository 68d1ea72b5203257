// Package console is the admin order console: one status view with
// approve, reject and complete actions and an optional poller.
package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eadens/cakeworld/app/lifecycle"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/logger"
)

// ErrSuperseded is returned by a fetch whose result was dropped because a
// newer fetch started after it.
var ErrSuperseded = errors.New("console: fetch superseded by a newer one")

// API is the part of the client the console uses.
type API interface {
	ListOrders(ctx context.Context, status, date string) ([]models.Order, error)
	Order(ctx context.Context, id string) (models.Order, error)
	TransitionOrder(ctx context.Context, id string, in services.TransitionInput) (models.Order, error)
}

// Console holds the rows of one status view.
type Console struct {
	api     API
	status  lifecycle.Status
	retries int
	backoff time.Duration

	mu     sync.Mutex
	rows   []models.Order
	gen    uint64
	cancel context.CancelFunc
}

type Option func(*Console)

// WithRetry sets how many extra attempts a transient list failure gets and
// the first backoff, which doubles per attempt.
func WithRetry(retries int, backoff time.Duration) Option {
	return func(c *Console) {
		c.retries = retries
		c.backoff = backoff
	}
}

func New(api API, status lifecycle.Status, opts ...Option) *Console {
	c := &Console{api: api, status: status, retries: 3, backoff: 500 * time.Millisecond}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Console) Status() lifecycle.Status { return c.status }

// Rows returns the last successfully fetched orders, newest first.
func (c *Console) Rows() []models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Order(nil), c.rows...)
}

// Refresh re-fetches the view. Starting a refresh cancels any in-flight one,
// and a result that arrives after a newer refresh started is discarded
// with ErrSuperseded.
func (c *Console) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	rows, err := c.fetch(fctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}
	c.cancel = nil
	if err != nil {
		return err
	}
	c.rows = rows
	return nil
}

func (c *Console) fetch(ctx context.Context) ([]models.Order, error) {
	wait := c.backoff
	for attempt := 0; ; attempt++ {
		rows, err := c.api.ListOrders(ctx, c.status.String(), "")
		if err == nil {
			return rows, nil
		}
		if attempt >= c.retries || !apperr.IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		logger.WithCtx(ctx).Debug("console: list failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

// Approve moves a PENDING order to APPROVED.
func (c *Console) Approve(ctx context.Context, id string) error {
	return c.act(ctx, id, lifecycle.Approved)
}

// Reject moves a PENDING order to CANCELLED.
func (c *Console) Reject(ctx context.Context, id string) error {
	return c.act(ctx, id, lifecycle.Cancelled)
}

// Complete moves an APPROVED order to COMPLETED.
func (c *Console) Complete(ctx context.Context, id string) error {
	return c.act(ctx, id, lifecycle.Completed)
}

// act sends the transition with the version last seen for the row. On
// failure the rows are left as they were.
func (c *Console) act(ctx context.Context, id string, to lifecycle.Status) error {
	in := services.TransitionInput{Status: to.String()}
	c.mu.Lock()
	for _, o := range c.rows {
		if o.ID == id {
			in.Version = o.Version
			break
		}
	}
	c.mu.Unlock()

	if _, err := c.api.TransitionOrder(ctx, id, in); err != nil {
		return err
	}
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return err
	}
	return nil
}

// Get reads one order. The server only returns it to its owner or an admin.
func (c *Console) Get(ctx context.Context, id string) (models.Order, error) {
	return c.api.Order(ctx, id)
}

// DefaultPollInterval is used by Watch when given a non-positive interval.
const DefaultPollInterval = 30 * time.Second

// Watch refreshes immediately and then every interval until ctx is done,
// calling fn with the rows after each fetch that was not superseded.
func (c *Console) Watch(ctx context.Context, interval time.Duration, fn func([]models.Order, error)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var (
		wg   sync.WaitGroup
		fnMu sync.Mutex
	)
	poll := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Refresh(ctx)
			if errors.Is(err, ErrSuperseded) || ctx.Err() != nil {
				return
			}
			fnMu.Lock()
			fn(c.Rows(), err)
			fnMu.Unlock()
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	poll()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			poll()
		}
	}
}
