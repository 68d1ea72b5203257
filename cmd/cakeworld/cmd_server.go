package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eadens/cakeworld/app/routes"
	"github.com/eadens/cakeworld/internal/kernel"
	"github.com/eadens/cakeworld/internal/server"
	"github.com/eadens/cakeworld/pkg/schedule"
)

// cakeworld serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Start(ctx)
	},
}

// cakeworld route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := kernel.Router(&routes.Services{}).Routes()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

// cakeworld schedule:list
var scheduleListCmd = &cobra.Command{
	Use:   "schedule:list",
	Short: "List the background tasks the server schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := schedule.New()
		server.ScheduleTasks(s, nil)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tEVERY")
		for _, j := range s.Jobs() {
			fmt.Fprintf(w, "%s\t%s\n", j.Name, j.Every)
		}
		return w.Flush()
	},
}
