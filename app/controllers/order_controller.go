package controllers

import (
	"time"

	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/ctx"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

func (oc *OrderController) Store(c *ctx.Context) {
	var in services.CreateOrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.service.Create(c.Context(), c.Principal(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(order)
}

// Index is the admin listing: ?status=PENDING&date=2026-01-31.
func (oc *OrderController) Index(c *ctx.Context) {
	filter := repositories.OrderFilter{Status: c.Query("status")}
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			c.Fail(apperr.Validation("orders.Index", "invalid date", map[string]string{"date": "The date must be formatted as YYYY-MM-DD."}))
			return
		}
		filter.Date = &day
	}

	orders, err := oc.service.List(c.Context(), c.Principal(), filter)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(orders)
}

func (oc *OrderController) Mine(c *ctx.Context) {
	orders, err := oc.service.Mine(c.Context(), c.Principal())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(orders)
}

func (oc *OrderController) Show(c *ctx.Context) {
	order, err := oc.service.Get(c.Context(), c.Principal(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

// Update applies a status transition.
func (oc *OrderController) Update(c *ctx.Context) {
	var in services.TransitionInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.service.Transition(c.Context(), c.Principal(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}
