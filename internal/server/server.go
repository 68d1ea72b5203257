package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eadens/cakeworld/app/listeners"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/app/routes"
	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/internal/kernel"
	"github.com/eadens/cakeworld/pkg/cache"
	"github.com/eadens/cakeworld/pkg/database"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/orm"
	"github.com/eadens/cakeworld/pkg/schedule"
	"github.com/eadens/cakeworld/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// Start boots every backing service and serves the API until ctx is
// cancelled, then drains in-flight requests.
func Start(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return err
	}
	defer database.Close()

	if err := cache.Connect(ctx); err != nil {
		logger.Warn("server: cache disabled", "error", err)
	}
	storage.Connect(ctx)
	listeners.Register()

	q := orm.DB()
	orders := repositories.NewOrderRepository(q)
	jobs := schedule.New()
	ScheduleTasks(jobs, orders)
	go jobs.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           kernel.BuildHandler(routes.NewServices(q)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// ScheduleTasks registers the background jobs the server runs.
func ScheduleTasks(s *schedule.Scheduler, orders listeners.Counter) {
	s.Add(schedule.Job{
		Name:  "orders:status-gauge",
		Every: time.Minute,
		Run: func(ctx context.Context) error {
			return listeners.RefreshStatusGauge(ctx, orders)
		},
	})
}
