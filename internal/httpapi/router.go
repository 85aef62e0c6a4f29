package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campuspass/internal/api"
	"campuspass/internal/audit"
	"campuspass/internal/visit"
	"campuspass/pkg/config"
)

type Dependencies struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Settings visit.Settings
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	visitRepo := visit.NewRepository(deps.DB)
	auditHandlers := audit.Handlers{Logs: audit.NewRepository(deps.DB)}
	visitHandlers := visit.Handlers{
		DB:       deps.DB,
		Visits:   visitRepo,
		Settings: deps.Settings,
		Now: func() time.Time {
			return time.Now().In(deps.Settings.Location)
		},
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		}))
		r.Use(api.Auth(deps.Cfg))

		// Booking UI
		r.Post("/visits", visitHandlers.Book)
		r.Get("/visits", visitHandlers.List)
		r.Get("/visits/{code}", visitHandlers.Get)

		// Staff console
		r.Group(func(r chi.Router) {
			r.Use(api.RequireStaff)

			r.Post("/visits/{code}/check-in", visitHandlers.CheckIn)
			r.Post("/visits/{code}/check-out", visitHandlers.CheckOut)
			r.Post("/walk-ins", visitHandlers.WalkIn)
			r.Get("/records", visitHandlers.Records)
			r.Get("/logs", auditHandlers.List)
		})
	})

	return r
}
