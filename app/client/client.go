// Package client is a typed client for the storefront API. Every failure is
// returned as an *apperr.Error decoded from the response envelope, so callers
// see the same Kind the server decided on.
package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/http"
)

type envelope struct {
	Status  int               `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// Client talks to one API base URL on behalf of one session.
type Client struct {
	base    string
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

func New(baseURL, token string) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), token: token, timeout: 15 * time.Second}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Authenticated reports whether a session token is held. The server still
// decides whether it is valid.
func (c *Client) Authenticated() bool {
	return c.Token() != ""
}

func (c *Client) url(path string) string { return c.base + path }

// catalogGet builds a public read that rides out a briefly unavailable
// server.
func catalogGet(u string) *http.Request {
	return http.Get(u).Retry(3, 250*time.Millisecond)
}

func (c *Client) send(ctx context.Context, op string, req *http.Request, dest interface{}) error {
	if tok := c.Token(); tok != "" {
		req = req.Bearer(tok)
	}
	resp, err := req.WithContext(ctx).Timeout(c.timeout).Send()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperr.Wrap(op, apperr.UpstreamFailure, err, "could not reach the server")
	}

	var env envelope
	if len(resp.Raw) > 0 {
		if err := resp.JSON(&env); err != nil && resp.OK() {
			return apperr.Wrap(op, apperr.UpstreamFailure, err, "unexpected response from the server")
		}
	}
	if !resp.OK() {
		return apperr.FromResponse(op, resp.StatusCode, env.Code, env.Message, env.Errors)
	}
	if dest == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return apperr.Wrap(op, apperr.UpstreamFailure, err, "unexpected response from the server")
	}
	return nil
}

// ── Auth ─────────────────────────────────────────────────────────────────────

// Register creates an account and keeps its session token.
func (c *Client) Register(ctx context.Context, in services.RegisterInput) (services.Session, error) {
	var sess services.Session
	if err := c.send(ctx, "client.Register", http.Post(c.url("/api/auth/register")).Body(in), &sess); err != nil {
		return sess, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

// Login signs in and keeps the session token.
func (c *Client) Login(ctx context.Context, email, password string) (services.Session, error) {
	var sess services.Session
	in := services.LoginInput{Email: email, Password: password}
	if err := c.send(ctx, "client.Login", http.Post(c.url("/api/auth/login")).Body(in), &sess); err != nil {
		return sess, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

// Logout drops the session token locally and tells the server.
func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, "client.Logout", http.Post(c.url("/api/auth/logout")), nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	err := c.send(ctx, "client.Me", http.Get(c.url("/api/auth/me")), &u)
	return u, err
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (c *Client) Products(ctx context.Context, category string) ([]models.Product, error) {
	path := "/api/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out []models.Product
	err := c.send(ctx, "client.Products", catalogGet(c.url(path)), &out)
	return out, err
}

func (c *Client) Product(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := c.send(ctx, "client.Product", catalogGet(c.url("/api/products/"+strconv.FormatUint(uint64(id), 10))), &p)
	return p, err
}

// PriceCake asks the server for a price preview.
func (c *Client) PriceCake(ctx context.Context, cfg cake.Config) (services.Quote, error) {
	var q services.Quote
	err := c.send(ctx, "client.PriceCake", http.Post(c.url("/api/custom-cakes/price")).Body(cfg), &q)
	return q, err
}

// SaveCustomCake persists a quote, used when a custom cake goes in the cart.
func (c *Client) SaveCustomCake(ctx context.Context, cfg cake.Config) (services.SavedQuote, error) {
	var q services.SavedQuote
	err := c.send(ctx, "client.SaveCustomCake", http.Post(c.url("/api/custom-cakes")).Body(cfg), &q)
	return q, err
}

func (c *Client) Reviews(ctx context.Context) ([]models.Review, error) {
	var out []models.Review
	err := c.send(ctx, "client.Reviews", catalogGet(c.url("/api/reviews")), &out)
	return out, err
}

func (c *Client) CreateReview(ctx context.Context, in services.ReviewInput) (models.Review, error) {
	var r models.Review
	err := c.send(ctx, "client.CreateReview", http.Post(c.url("/api/reviews")).Body(in), &r)
	return r, err
}

// ── Orders ───────────────────────────────────────────────────────────────────

// CreateOrder submits an order. It is never retried.
func (c *Client) CreateOrder(ctx context.Context, in services.CreateOrderInput) (models.Order, error) {
	var o models.Order
	err := c.send(ctx, "client.CreateOrder", http.Post(c.url("/api/orders")).Body(in), &o)
	return o, err
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.send(ctx, "client.MyOrders", http.Get(c.url("/api/orders/mine")), &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := c.send(ctx, "client.Order", http.Get(c.url("/api/orders/"+url.PathEscape(id))), &o)
	return o, err
}

// ListOrders is the admin listing. Empty filters match everything; date is
// YYYY-MM-DD.
func (c *Client) ListOrders(ctx context.Context, status, date string) ([]models.Order, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if date != "" {
		q.Set("date", date)
	}
	path := "/api/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []models.Order
	err := c.send(ctx, "client.ListOrders", http.Get(c.url(path)), &out)
	return out, err
}

func (c *Client) TransitionOrder(ctx context.Context, id string, in services.TransitionInput) (models.Order, error) {
	var o models.Order
	err := c.send(ctx, "client.TransitionOrder", http.Patch(c.url("/api/orders/"+url.PathEscape(id))).Body(in), &o)
	return o, err
}
