// Package kernel assembles the storefront's HTTP handler: the global
// middleware stack, the metrics and storage endpoints, and the API routes.
package kernel

import (
	"net/http"
	"time"

	"github.com/eadens/cakeworld/app/routes"
	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/metrics"
	"github.com/eadens/cakeworld/pkg/middleware"
	"github.com/eadens/cakeworld/pkg/reqid"
	"github.com/eadens/cakeworld/pkg/router"
	"github.com/eadens/cakeworld/pkg/storage"
)

// Router registers the API routes only. route:list builds it over an empty
// Services since no handler runs.
func Router(s *routes.Services) *router.Router {
	r := router.New()
	routes.RegisterAPI(r, s)
	return r
}

// BuildHandler returns the full handler served by internal/server.
func BuildHandler(s *routes.Services) http.Handler {
	r := router.New()

	// Outermost first: metrics see total latency, Recovery catches panics
	// before anything logs, the request ID exists before Logger runs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.CORSFromList(config.Get("CORS_ORIGIN", ""))))
	r.Use(middleware.RateLimit(config.GetInt("RATE_LIMIT_PER_MINUTE", 200), time.Minute))

	r.HandleFunc("/metrics", metrics.Handler())

	// Uploaded product images on the local disk. S3 objects are served by
	// the bucket itself.
	if disk, ok := storage.Default().(*storage.LocalDisk); ok {
		files := http.StripPrefix("/storage/", http.FileServer(http.Dir(disk.Root())))
		r.HandleFunc("/storage/*", files.ServeHTTP)
	}

	routes.RegisterAPI(r, s)
	return r.Handler()
}
