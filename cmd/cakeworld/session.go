package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eadens/cakeworld/app/cart"
	"github.com/eadens/cakeworld/app/client"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/storage"
)

const tokenKey = "session.token"

// session is the CLI's client-side state: the API client with its token and
// the local disk holding the token and the cart.
type session struct {
	disk *storage.LocalDisk
	api  *client.Client
}

func openSession() *session {
	disk := storage.NewLocalDisk(config.ClientHome(), "")
	token := ""
	if raw, err := disk.Get(context.Background(), tokenKey); err == nil {
		token = strings.TrimSpace(string(raw))
	} else if !errors.Is(err, storage.ErrNotExist) {
		logger.Warn("cli: could not read session token", "error", err)
	}
	return &session{disk: disk, api: client.New(config.APIURL(), token)}
}

// persist writes the client's current token, or removes it after logout.
func (s *session) persist() error {
	if tok := s.api.Token(); tok != "" {
		return s.disk.Put(context.Background(), tokenKey, strings.NewReader(tok), "text/plain")
	}
	return s.disk.Delete(context.Background(), tokenKey)
}

func (s *session) cart() *cart.Cart {
	return cart.Load(cart.NewDiskStore(s.disk))
}

func deliveryFee() decimal.Decimal {
	fee, err := decimal.NewFromString(config.DeliveryFee())
	if err != nil || fee.IsNegative() {
		return decimal.RequireFromString("5.99")
	}
	return fee
}

// describe renders err for a terminal, including per-field messages.
func describe(err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return err.Error()
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, e.Fields[k])
	}
	return b.String()
}

func money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

func printOrders(out io.Writer, orders []models.Order) error {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCUSTOMER\tMETHOD\tTOTAL\tPLACED\tSCHEDULED\tVERSION")
	for _, o := range orders {
		customer := "-"
		if o.Customer != nil {
			customer = o.Customer.Name
		}
		scheduled := "-"
		if o.ScheduledDate != nil {
			scheduled = o.ScheduledDate.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			o.ID, o.Status, customer, o.DeliveryMethod, money(o.Total),
			o.CreatedAt.Local().Format("2006-01-02 15:04"), scheduled, o.Version)
	}
	return w.Flush()
}

func printOrder(out io.Writer, o models.Order) error {
	fmt.Fprintf(out, "Order %s  [%s]  version %d\n", o.ID, o.Status, o.Version)
	if o.Customer != nil {
		fmt.Fprintf(out, "Customer: %s <%s>\n", o.Customer.Name, o.Customer.Email)
	}
	fmt.Fprintf(out, "Method:   %s\n", o.DeliveryMethod)
	if o.Address != "" {
		fmt.Fprintf(out, "Address:  %s\n", o.Address)
	}
	if o.ScheduledDate != nil {
		fmt.Fprintf(out, "Scheduled: %s\n", o.ScheduledDate.Format(time.DateOnly))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nITEM\tKIND\tQTY\tPRICE\tLINE")
	for _, it := range o.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", it.Name, it.Kind, it.Quantity, money(it.Price), money(it.LineTotal()))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSubtotal %s  Delivery %s  Total %s\n", money(o.Subtotal), money(o.DeliveryFee), money(o.Total))

	if len(o.History) > 0 {
		fmt.Fprintln(out, "\nHistory:")
		for _, h := range o.History {
			from := h.FromStatus
			if from == "" {
				from = "-"
			}
			fmt.Fprintf(out, "  %s  %s → %s\n", h.CreatedAt.Local().Format("2006-01-02 15:04"), from, h.ToStatus)
		}
	}
	return nil
}
