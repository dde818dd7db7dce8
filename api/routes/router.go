package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/salonflow/backend/api/controllers"
	appointmentcontrollers "github.com/salonflow/backend/api/controllers/appointments"
	paymentcontrollers "github.com/salonflow/backend/api/controllers/payments"
	salecontrollers "github.com/salonflow/backend/api/controllers/sales"
	"github.com/salonflow/backend/api/middleware"
	"github.com/salonflow/backend/internal/payments"
	"github.com/salonflow/backend/internal/sales"
	"github.com/salonflow/backend/internal/scheduling"
	"github.com/salonflow/backend/pkg/config"
	"github.com/salonflow/backend/pkg/enums"
	"github.com/salonflow/backend/pkg/logger"
	"github.com/salonflow/backend/pkg/metrics"
	"github.com/salonflow/backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	registry *prometheus.Registry,
	schedulingService scheduling.Service,
	salesService sales.Service,
	paymentsService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", appointmentcontrollers.List(schedulingService, logg))
			r.Post("/", appointmentcontrollers.Create(schedulingService, logg))
			r.Get("/{appointmentId}", appointmentcontrollers.Detail(schedulingService, logg))
			r.Put("/{appointmentId}", appointmentcontrollers.Update(schedulingService, logg))
			r.Patch("/{appointmentId}/status", appointmentcontrollers.PatchStatus(schedulingService, logg))
			r.Route("/{appointmentId}/payments", func(r chi.Router) {
				r.Get("/", paymentcontrollers.ListForAppointment(paymentsService, logg))
				r.Post("/", paymentcontrollers.RecordForAppointment(paymentsService, logg))
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", salecontrollers.List(salesService, logg))
			r.Post("/", salecontrollers.Create(salesService, logg))
			r.Get("/{saleId}", salecontrollers.Detail(salesService, logg))
			r.Put("/{saleId}", salecontrollers.Update(salesService, logg))
			r.Route("/{saleId}/payments", func(r chi.Router) {
				r.Get("/", paymentcontrollers.ListForSale(paymentsService, logg))
				r.Post("/", paymentcontrollers.RecordForSale(paymentsService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.StaffRoleAdmin), logg))
			r.Get("/ping", controllers.AdminPing())
		})
	})

	return r
}
