package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/ledgerbot/internal/http/auth"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/export"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/reconcile"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/record"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func New(
	opts Options,
	db Pinger,
	authn *auth.Authenticator,
	recordsV1 *record.Handler,
	importV1 *importcsv.Handler,
	syncV1 *reconcile.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Route("/records", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			recordsV1.Routes(r)
		})

		r.Route("/reviews", recordsV1.ReviewRoutes)
		r.Route("/import", importV1.Routes)
		r.Route("/sync", syncV1.Routes)
		r.Route("/export", exportV1.Routes)
	})

	return router
}
