package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eadens/cakeworld/app/console"
	"github.com/eadens/cakeworld/app/lifecycle"
	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/config"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Order administration (requires an ADMIN session)",
}

var (
	adminStatus   string
	adminWatch    bool
	adminInterval time.Duration
)

// cakeworld admin orders
var adminOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List orders by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, ok := lifecycle.Parse(adminStatus)
		if !ok {
			return fmt.Errorf("unknown status %q", adminStatus)
		}
		if adminWatch && adminInterval <= 0 {
			return fmt.Errorf("--interval must be positive, got %s", adminInterval)
		}
		c := console.New(openSession().api, status)

		if !adminWatch {
			if err := c.Refresh(cmd.Context()); err != nil {
				return err
			}
			return printOrders(os.Stdout, c.Rows())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Printf("Watching %s orders every %s. Press Ctrl+C to stop.\n", status, adminInterval)
		c.Watch(ctx, adminInterval, func(rows []models.Order, err error) {
			fmt.Printf("\n── %s ──\n", time.Now().Format(time.TimeOnly))
			if err != nil {
				fmt.Fprintln(os.Stderr, "refresh failed:", describe(err))
				return
			}
			_ = printOrders(os.Stdout, rows)
		})
		return nil
	},
}

// transitionCmd builds approve, reject and complete. The console is loaded
// with the status the order must currently have so the row version goes out
// with the request.
func transitionCmd(use, short string, from lifecycle.Status, act func(*console.Console, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <order-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := console.New(openSession().api, from)
			if err := c.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := act(c, cmd.Context(), args[0]); err != nil {
				return err
			}
			o, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Order %s is now %s.\n", o.ID, o.Status)
			return nil
		},
	}
}

func init() {
	f := adminOrdersCmd.Flags()
	f.StringVar(&adminStatus, "status", lifecycle.Pending.String(), "PENDING, APPROVED, COMPLETED or CANCELLED")
	f.BoolVar(&adminWatch, "watch", false, "keep polling until interrupted")
	f.DurationVar(&adminInterval, "interval", config.AdminPollInterval(), "poll interval for --watch")

	adminCmd.AddCommand(
		adminOrdersCmd,
		transitionCmd("approve", "Approve a pending order", lifecycle.Pending, (*console.Console).Approve),
		transitionCmd("reject", "Cancel a pending order", lifecycle.Pending, (*console.Console).Reject),
		transitionCmd("complete", "Mark an approved order completed", lifecycle.Approved, (*console.Console).Complete),
	)
}
