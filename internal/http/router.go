package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/patio/internal/http/customer"
	"github.com/MrJamesThe3rd/patio/internal/http/movement"
	"github.com/MrJamesThe3rd/patio/internal/http/render"
	"github.com/MrJamesThe3rd/patio/internal/http/till"
	"github.com/MrJamesThe3rd/patio/internal/metrics"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	CORSOrigins []string
	Timeout     time.Duration
	Metrics     *metrics.Metrics
	DB          Pinger
}

func New(
	opts Options,
	movementsV1 *movement.Handler,
	customersV1 *customer.Handler,
	tillV1 *till.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", render.OperatorHeader},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.DB != nil {
			if err := opts.DB.PingContext(r.Context()); err != nil {
				render.Message(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}

		render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/movements", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			movementsV1.Routes(r)
		})

		r.Route("/customers", customersV1.Routes)

		r.Route("/till", tillV1.Routes)
	})

	return router
}
