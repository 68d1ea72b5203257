// Package checkout turns a cart into an order.
package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/eadens/cakeworld/app/cart"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/shopspring/decimal"
)

// OrderCreator sends an order to the server.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in services.CreateOrderInput) (models.Order, error)
}

// Identity reports whether a customer session is present.
type Identity interface {
	Authenticated() bool
}

// Request is what the customer chose at checkout.
type Request struct {
	DeliveryMethod string
	Address        string
	ScheduledDate  *time.Time
}

// Submitter runs the checkout protocol over one cart.
type Submitter struct {
	cart        *cart.Cart
	creator     OrderCreator
	identity    Identity
	deliveryFee decimal.Decimal
}

func NewSubmitter(c *cart.Cart, creator OrderCreator, identity Identity, deliveryFee decimal.Decimal) *Submitter {
	return &Submitter{cart: c, creator: creator, identity: identity, deliveryFee: deliveryFee}
}

// Totals is the money breakdown sent with the order.
type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// Quote computes the totals for req without submitting.
func (s *Submitter) Quote(method string) Totals {
	fee := decimal.Zero
	if strings.EqualFold(method, models.DeliveryMethodDelivery) {
		fee = s.deliveryFee
	}
	sub := s.cart.Subtotal().Round(2)
	return Totals{Subtotal: sub, DeliveryFee: fee, Total: sub.Add(fee).Round(2)}
}

// Submit checks the preconditions, sends the cart snapshot and clears the
// cart once the server accepts it. It does not retry.
func (s *Submitter) Submit(ctx context.Context, req Request) (models.Order, error) {
	const op = "checkout.Submit"

	if s.identity == nil || !s.identity.Authenticated() {
		return models.Order{}, apperr.New(op, apperr.AuthenticationRequired, "please login to place an order")
	}
	items := s.cart.Items()
	if len(items) == 0 {
		return models.Order{}, apperr.New(op, apperr.ValidationFailed, "your cart is empty")
	}
	method := strings.ToUpper(strings.TrimSpace(req.DeliveryMethod))
	if method == "" {
		method = models.DeliveryMethodDelivery
	}
	if method == models.DeliveryMethodDelivery && strings.TrimSpace(req.Address) == "" {
		return models.Order{}, apperr.Validation(op, "please enter your delivery address", map[string]string{"address": "please enter your delivery address"})
	}

	totals := s.Quote(method)
	in := services.CreateOrderInput{
		DeliveryMethod: method,
		Subtotal:       &totals.Subtotal,
		DeliveryFee:    &totals.DeliveryFee,
		Total:          &totals.Total,
		ScheduledDate:  req.ScheduledDate,
	}
	if method == models.DeliveryMethodDelivery {
		in.Address = strings.TrimSpace(req.Address)
	}
	for _, it := range items {
		in.Items = append(in.Items, services.OrderItemInput{
			ID:            it.ID,
			Name:          it.Name,
			Price:         it.UnitPrice,
			Quantity:      it.Quantity,
			Kind:          it.Kind,
			CustomOptions: it.Custom,
			Image:         it.Image,
		})
	}

	order, err := s.creator.CreateOrder(ctx, in)
	if err != nil {
		return models.Order{}, err
	}

	if err := s.cart.Clear(); err != nil {
		logger.WithCtx(ctx).Warn("checkout: order placed but cart not cleared", "order_id", order.ID, "error", err)
	}
	return order, nil
}
