package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/lifecycle"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/event"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/metrics"
	"github.com/shopspring/decimal"
)

// CustomItemPrefix marks cart/order item ids that refer to a custom-cake quote.
const CustomItemPrefix = "cc-"

// OrderCreated is fired once a new order has committed.
type OrderCreated struct {
	Order models.Order
}

// StatusChanged is fired once a transition has committed.
type StatusChanged struct {
	OrderID string
	From    lifecycle.Status
	To      lifecycle.Status
	ActorID uint
}

// OrderItemInput is one submitted line. Price is informational: the server
// re-prices every line.
type OrderItemInput struct {
	ID            string          `json:"id"`
	ProductID     *uint           `json:"productId,omitempty"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Kind          string          `json:"kind"`
	CustomOptions *cake.Config    `json:"customOptions,omitempty"`
	Image         string          `json:"image,omitempty"`
}

// CreateOrderInput is the order submission payload. Status is accepted and
// ignored; new orders are always PENDING.
type CreateOrderInput struct {
	Items          []OrderItemInput `json:"items"`
	DeliveryMethod string           `json:"deliveryMethod"`
	Address        string           `json:"address,omitempty"`
	Subtotal       *decimal.Decimal `json:"subtotal,omitempty"`
	DeliveryFee    *decimal.Decimal `json:"deliveryFee,omitempty"`
	Total          *decimal.Decimal `json:"total,omitempty"`
	Status         string           `json:"status,omitempty"`
	ScheduledDate  *time.Time       `json:"scheduledDate,omitempty"`
}

// TransitionInput requests a status change. Version, when set, must match
// the order's current version.
type TransitionInput struct {
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	Version       int        `json:"version,omitempty"`
}

// OrderOptions configures money and lifecycle rules.
type OrderOptions struct {
	Policy            lifecycle.Policy
	Versioned         bool
	DeliveryFee       decimal.Decimal
	StrictCakeOptions bool
}

// OrderOptionsFromConfig reads the options from the environment.
func OrderOptionsFromConfig() OrderOptions {
	fee, err := decimal.NewFromString(config.DeliveryFee())
	if err != nil {
		logger.Warn("orders: invalid DELIVERY_FEE, using 5.99", "value", config.DeliveryFee())
		fee = decimal.RequireFromString("5.99")
	}
	return OrderOptions{
		Policy:            lifecycle.PolicyFromConfig(),
		Versioned:         config.OrderConcurrency() == config.ConcurrencyVersioned,
		DeliveryFee:       fee,
		StrictCakeOptions: config.CakeStrictOptions(),
	}
}

// OrderService owns order creation and the order state machine.
type OrderService struct {
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	opts     OrderOptions
}

func NewOrderService(orders *repositories.OrderRepository, products *repositories.ProductRepository, opts OrderOptions) *OrderService {
	if opts.Policy == nil {
		opts.Policy = lifecycle.Strict{}
	}
	return &OrderService{orders: orders, products: products, opts: opts}
}

// Create validates and prices the submission and persists it as PENDING.
func (s *OrderService) Create(ctx context.Context, p auth.Principal, in CreateOrderInput) (models.Order, error) {
	const op = "orders.Create"
	if err := requireUser(op, p.Anonymous(), "please login to place an order"); err != nil {
		return models.Order{}, err
	}
	if err := s.validateCreate(in); err != nil {
		return models.Order{}, err
	}

	items, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return models.Order{}, err
	}

	method := strings.ToUpper(in.DeliveryMethod)
	fee := decimal.Zero
	if method == models.DeliveryMethodDelivery {
		fee = s.opts.DeliveryFee
	}
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	subtotal = subtotal.Round(2)
	total := subtotal.Add(fee).Round(2)

	log := logger.WithCtx(ctx)
	if claimsDiffer(in.Subtotal, subtotal) || claimsDiffer(in.DeliveryFee, fee) || claimsDiffer(in.Total, total) {
		log.Warn("orders: client totals differ from server pricing, using server values",
			"user_id", p.UserID, "client_total", in.Total, "server_total", total)
	}

	order := models.Order{
		UserID:         p.UserID,
		Status:         lifecycle.Pending.String(),
		DeliveryMethod: method,
		Subtotal:       subtotal,
		DeliveryFee:    fee,
		Total:          total,
		ScheduledDate:  in.ScheduledDate,
		Items:          items,
	}
	if method == models.DeliveryMethodDelivery {
		order.Address = strings.TrimSpace(in.Address)
	}

	if err := s.orders.Create(ctx, &order, p.UserID); err != nil {
		return models.Order{}, dbErr(ctx, op, err, "")
	}
	log.Info("orders: created", "order_id", order.ID, "user_id", p.UserID, "total", total.StringFixed(2))

	created, err := s.orders.Find(ctx, order.ID)
	if err != nil {
		return models.Order{}, dbErr(ctx, op, err, "order not found")
	}
	event.Fire(ctx, OrderCreated{Order: created})
	return created, nil
}

func (s *OrderService) validateCreate(in CreateOrderInput) error {
	const op = "orders.Create"
	fields := map[string]string{}

	if len(in.Items) == 0 {
		fields["items"] = "The order must contain at least one item."
	}
	for i, it := range in.Items {
		key := fmt.Sprintf("items.%d", i)
		if it.Quantity < 1 {
			fields[key+".quantity"] = "The quantity must be at least 1."
		}
		switch it.Kind {
		case models.ItemCustom:
			if it.CustomOptions == nil {
				fields[key+".customOptions"] = "Custom items need their cake options."
			} else if err := it.CustomOptions.Validate(s.opts.StrictCakeOptions); err != nil {
				if e, ok := apperr.As(err); ok {
					for f, msg := range e.Fields {
						fields[key+".customOptions."+f] = msg
					}
				}
			}
		case models.ItemStandard, "":
			if _, ok := productIDOf(it); !ok {
				fields[key+".productId"] = "The product id is required."
			}
		default:
			fields[key+".kind"] = "The kind must be standard or custom."
		}
	}

	switch strings.ToUpper(in.DeliveryMethod) {
	case models.DeliveryMethodDelivery:
		if strings.TrimSpace(in.Address) == "" {
			fields["address"] = "please enter your delivery address"
		}
	case models.DeliveryMethodTakeaway:
	default:
		fields["deliveryMethod"] = "The delivery method must be DELIVERY or TAKEAWAY."
	}

	if len(fields) > 0 {
		return apperr.Validation(op, "invalid order", fields)
	}
	return nil
}

// priceItems resolves every line to its authoritative price.
func (s *OrderService) priceItems(ctx context.Context, in []OrderItemInput) ([]models.OrderItem, error) {
	const op = "orders.Create"

	var ids []uint
	for _, it := range in {
		if id, ok := productIDOf(it); ok && it.Kind != models.ItemCustom {
			ids = append(ids, id)
		}
	}
	catalog, err := s.products.FindMany(ctx, ids)
	if err != nil {
		return nil, dbErr(ctx, op, err, "")
	}

	items := make([]models.OrderItem, 0, len(in))
	for i, it := range in {
		if it.Kind == models.ItemCustom {
			raw, err := json.Marshal(it.CustomOptions)
			if err != nil {
				return nil, apperr.Wrap(op, apperr.ValidationFailed, err, "invalid cake options")
			}
			name := strings.TrimSpace(it.Name)
			if name == "" {
				name = it.CustomOptions.Name()
			}
			items = append(items, models.OrderItem{
				Name:          name,
				Price:         cake.Price(*it.CustomOptions),
				Quantity:      it.Quantity,
				Kind:          models.ItemCustom,
				CustomOptions: string(raw),
				Image:         it.Image,
			})
			continue
		}

		id, _ := productIDOf(it)
		product, ok := catalog[id]
		if !ok {
			return nil, apperr.Validation(op, "invalid order", map[string]string{
				fmt.Sprintf("items.%d.productId", i): "The selected product does not exist.",
			})
		}
		pid := product.ID
		items = append(items, models.OrderItem{
			ProductID: &pid,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  it.Quantity,
			Kind:      models.ItemStandard,
			Image:     product.Image,
		})
	}
	return items, nil
}

// productIDOf reads the product id from ProductID or, failing that, the
// cart item id.
func productIDOf(it OrderItemInput) (uint, bool) {
	if it.ProductID != nil && *it.ProductID > 0 {
		return *it.ProductID, true
	}
	n, err := strconv.ParseUint(it.ID, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func claimsDiffer(claim *decimal.Decimal, actual decimal.Decimal) bool {
	return claim != nil && !claim.Round(2).Equal(actual)
}

// Get returns one order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, p auth.Principal, id string) (models.Order, error) {
	const op = "orders.Get"
	if err := requireUser(op, p.Anonymous(), "please login to view orders"); err != nil {
		return models.Order{}, err
	}
	order, err := s.orders.Find(ctx, id)
	if err != nil {
		return models.Order{}, dbErr(ctx, op, err, "order not found")
	}
	if !p.IsAdmin() && order.UserID != p.UserID {
		return models.Order{}, apperr.New(op, apperr.AuthorizationDenied, "you cannot view this order")
	}
	return order, nil
}

// List is the admin listing, newest first.
func (s *OrderService) List(ctx context.Context, p auth.Principal, f repositories.OrderFilter) ([]models.Order, error) {
	const op = "orders.List"
	if err := requireAdmin(op, p); err != nil {
		return nil, err
	}
	if f.Status != "" {
		st, ok := lifecycle.Parse(f.Status)
		if !ok {
			return nil, apperr.Validation(op, "invalid status", map[string]string{"status": "The selected status is invalid."})
		}
		f.Status = st.String()
	}
	orders, err := s.orders.List(ctx, f)
	return orders, dbErr(ctx, op, err, "")
}

// Mine lists the caller's own orders, newest first.
func (s *OrderService) Mine(ctx context.Context, p auth.Principal) ([]models.Order, error) {
	const op = "orders.Mine"
	if err := requireUser(op, p.Anonymous(), "please login to view your orders"); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, p.UserID)
	return orders, dbErr(ctx, op, err, "")
}

// Transition moves an order to in.Status under the configured policy and
// concurrency discipline.
func (s *OrderService) Transition(ctx context.Context, p auth.Principal, id string, in TransitionInput) (models.Order, error) {
	const op = "orders.Transition"
	if err := requireAdmin(op, p); err != nil {
		return models.Order{}, err
	}

	to, ok := lifecycle.Parse(in.Status)
	if !ok {
		return models.Order{}, apperr.Validation(op, "invalid status", map[string]string{"status": "The selected status is invalid."})
	}

	current, err := s.orders.Find(ctx, id)
	if err != nil {
		return models.Order{}, dbErr(ctx, op, err, "order not found")
	}
	from := lifecycle.Status(current.Status)

	if err := s.opts.Policy.Check(from, to); err != nil {
		metrics.OrderTransitionsRejected.WithLabelValues(apperr.CodeInvalidTransition).Inc()
		return models.Order{}, err
	}

	update := repositories.StatusUpdate{
		OrderID:       id,
		From:          from.String(),
		To:            to.String(),
		ScheduledDate: in.ScheduledDate,
		ActorID:       p.UserID,
	}
	if s.opts.Versioned {
		update.ExpectedVersion = current.Version
		if in.Version > 0 {
			update.ExpectedVersion = in.Version
		}
	}

	if err := s.orders.UpdateStatus(ctx, update); err != nil {
		if e, ok := apperr.As(err); ok && e.Code == apperr.CodeConflict {
			metrics.OrderTransitionsRejected.WithLabelValues(apperr.CodeConflict).Inc()
			logger.WithCtx(ctx).Info("orders: transition lost a race", "order_id", id, "version", update.ExpectedVersion)
		}
		return models.Order{}, dbErr(ctx, op, err, "order not found")
	}

	updated, err := s.orders.Find(ctx, id)
	if err != nil {
		return models.Order{}, dbErr(ctx, op, err, "order not found")
	}
	event.Fire(ctx, StatusChanged{OrderID: id, From: from, To: to, ActorID: p.UserID})
	return updated, nil
}

// CountByStatus feeds the orders-by-status gauge.
func (s *OrderService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts, err := s.orders.CountByStatus(ctx)
	return counts, dbErr(ctx, "orders.CountByStatus", err, "")
}

func requireAdmin(op string, p auth.Principal) error {
	if p.Anonymous() {
		return apperr.New(op, apperr.AuthenticationRequired, "please login")
	}
	if !p.IsAdmin() {
		return apperr.New(op, apperr.AuthorizationDenied, "admin access required")
	}
	return nil
}
