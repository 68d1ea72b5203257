package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/cart"
	"github.com/eadens/cakeworld/app/checkout"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/services"
)

// cakeFlags binds one flag per customizer option, defaulting to the
// customizer's starting configuration.
func cakeFlags(cmd *cobra.Command, cfg *cake.Config) {
	*cfg = cake.Default
	f := cmd.Flags()
	f.StringVar(&cfg.Flavor, "flavor", cfg.Flavor, "cake flavor")
	f.StringVar(&cfg.Filling, "filling", cfg.Filling, "filling")
	f.StringVar(&cfg.Frosting, "frosting", cfg.Frosting, "frosting")
	f.StringVar(&cfg.Decoration, "decoration", cfg.Decoration, "decoration")
	f.StringVar(&cfg.Shape, "shape", cfg.Shape, "shape")
	f.StringVar(&cfg.Size, "size", cfg.Size, "size, e.g. \"10 inch\" or \"Tiered (2 layers)\"")
	f.StringVar(&cfg.Color, "color", cfg.Color, "color")
	f.StringVar(&cfg.Message, "message", "", "message written on the cake")
	f.StringVar(&cfg.SpecialInstructions, "instructions", "", "special instructions")
}

var (
	priceCfg     cake.Config
	priceOffline bool
)

// cakeworld price
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a custom cake",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := services.Quote{Base: cake.BasePrice, Surcharges: cake.Surcharges(priceCfg), Price: cake.Price(priceCfg)}
		if !priceOffline {
			var err error
			if q, err = openSession().api.PriceCake(cmd.Context(), priceCfg); err != nil {
				return err
			}
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Base\t\t%s\n", money(q.Base))
		for _, s := range q.Surcharges {
			fmt.Fprintf(w, "%s\t%s\t+%s\n", s.Option, s.Value, money(s.Amount))
		}
		fmt.Fprintf(w, "Total\t\t%s\n", money(q.Price))
		return w.Flush()
	},
}

var registerIn services.RegisterInput

// cakeworld register
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a customer account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession()
		sess, err := s.api.Register(cmd.Context(), registerIn)
		if err != nil {
			return err
		}
		if err := s.persist(); err != nil {
			return err
		}
		fmt.Printf("Welcome, %s! You are signed in.\n", sess.User.Name)
		return nil
	},
}

var loginIn services.LoginInput

// cakeworld login
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession()
		sess, err := s.api.Login(cmd.Context(), loginIn.Email, loginIn.Password)
		if err != nil {
			return err
		}
		if err := s.persist(); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (%s).\n", sess.User.Email, sess.User.Role)
		return nil
	},
}

// cakeworld logout
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession()
		err := s.api.Logout(cmd.Context())
		if perr := s.persist(); perr != nil {
			return perr
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Signed out locally; server said:", describe(err))
			return nil
		}
		fmt.Println("Signed out.")
		return nil
	},
}

// ── Cart ─────────────────────────────────────────────────────────────────────

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the local cart",
}

func printCart(c *cart.Cart) error {
	items := c.Items()
	if len(items) == 0 {
		fmt.Println("Your cart is empty.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tQTY\tPRICE\tLINE")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.Name, it.Kind, it.Quantity, money(it.UnitPrice), money(it.LineTotal()))
	}
	fmt.Fprintf(w, "\t\t\t%d\tSubtotal\t%s\n", c.Count(), money(c.Subtotal()))
	return w.Flush()
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCart(openSession().cart())
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add one of a catalog product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("product id must be a number")
		}
		s := openSession()
		p, err := s.api.Product(cmd.Context(), uint(id))
		if err != nil {
			return err
		}
		c := s.cart()
		if err := c.Add(cart.Item{ID: args[0], Name: p.Name, UnitPrice: p.Price, Image: p.Image, Kind: models.ItemStandard}); err != nil {
			return err
		}
		return printCart(c)
	},
}

var customCfg cake.Config

var cartAddCustomCmd = &cobra.Command{
	Use:   "add-custom",
	Short: "Price a custom cake and add it",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession()
		saved, err := s.api.SaveCustomCake(cmd.Context(), customCfg)
		if err != nil {
			return err
		}
		cfg := customCfg
		c := s.cart()
		err = c.Add(cart.Item{
			ID:        services.CustomItemPrefix + strconv.FormatUint(uint64(saved.CustomCake.ID), 10),
			Name:      cfg.Name(),
			UnitPrice: saved.Price,
			Kind:      models.ItemCustom,
			Custom:    &cfg,
		})
		if err != nil {
			return err
		}
		return printCart(c)
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove every line with this id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := openSession().cart()
		if err := c.Remove(args[0]); err != nil {
			return err
		}
		return printCart(c)
	},
}

var cartQtyCmd = &cobra.Command{
	Use:   "qty <id> <quantity>",
	Short: "Set a line's quantity (minimum 1)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be a number")
		}
		c := openSession().cart()
		if err := c.UpdateQuantity(args[0], n); err != nil {
			return err
		}
		return printCart(c)
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return openSession().cart().Clear()
	},
}

// ── Checkout & orders ────────────────────────────────────────────────────────

var (
	checkoutReq  checkout.Request
	checkoutDate string
)

// cakeworld checkout
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for everything in the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := checkoutReq
		if checkoutDate != "" {
			day, err := time.ParseInLocation(time.DateOnly, checkoutDate, time.Local)
			if err != nil {
				return fmt.Errorf("--date must be formatted as YYYY-MM-DD")
			}
			req.ScheduledDate = &day
		}

		s := openSession()
		sub := checkout.NewSubmitter(s.cart(), s.api, s.api, deliveryFee())
		order, err := sub.Submit(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Println("Order placed. We'll be in touch when it is approved.")
		return printOrder(os.Stdout, order)
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Your orders",
}

var ordersMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your orders, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := openSession().api.MyOrders(cmd.Context())
		if err != nil {
			return err
		}
		return printOrders(os.Stdout, orders)
	},
}

var ordersShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show one order with its items and history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openSession().api.Order(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printOrder(os.Stdout, o)
	},
}

func init() {
	cakeFlags(priceCmd, &priceCfg)
	priceCmd.Flags().BoolVar(&priceOffline, "offline", false, "price locally without calling the server")

	cakeFlags(cartAddCustomCmd, &customCfg)

	rf := registerCmd.Flags()
	rf.StringVar(&registerIn.Name, "name", "", "your name")
	rf.StringVar(&registerIn.Email, "email", "", "email address")
	rf.StringVar(&registerIn.Password, "password", "", "password (6+ characters)")
	rf.StringVar(&registerIn.Address, "address", "", "delivery address")
	rf.StringVar(&registerIn.Phone, "phone", "", "phone number")

	lf := loginCmd.Flags()
	lf.StringVar(&loginIn.Email, "email", "", "email address")
	lf.StringVar(&loginIn.Password, "password", "", "password")

	cf := checkoutCmd.Flags()
	cf.StringVar(&checkoutReq.DeliveryMethod, "method", models.DeliveryMethodDelivery, "DELIVERY or TAKEAWAY")
	cf.StringVar(&checkoutReq.Address, "address", "", "delivery address (required for DELIVERY)")
	cf.StringVar(&checkoutDate, "date", "", "requested date, YYYY-MM-DD")

	cartCmd.AddCommand(cartListCmd, cartAddCmd, cartAddCustomCmd, cartRemoveCmd, cartQtyCmd, cartClearCmd)
	ordersCmd.AddCommand(ordersMineCmd, ordersShowCmd)
}
