package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/catering-backend/api/controllers"
	contractcontrollers "github.com/angelmondragon/catering-backend/api/controllers/contracts"
	invoicecontrollers "github.com/angelmondragon/catering-backend/api/controllers/invoices"
	quotecontrollers "github.com/angelmondragon/catering-backend/api/controllers/quotes"
	reportcontrollers "github.com/angelmondragon/catering-backend/api/controllers/reports"
	"github.com/angelmondragon/catering-backend/api/middleware"
	"github.com/angelmondragon/catering-backend/internal/contracts"
	"github.com/angelmondragon/catering-backend/internal/estimates"
	"github.com/angelmondragon/catering-backend/internal/invoices"
	"github.com/angelmondragon/catering-backend/internal/quotes"
	"github.com/angelmondragon/catering-backend/internal/reports"
	"github.com/angelmondragon/catering-backend/pkg/config"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/metrics"
	"github.com/angelmondragon/catering-backend/pkg/redis"
)

// Services groups the domain services mounted by the API.
type Services struct {
	Quotes    quotes.Service
	Invoices  invoices.Service
	Estimates estimates.Service
	Contracts contracts.Service
	Reports   reports.Service
}

// Infra carries the shared clients used by middleware and probes.
type Infra struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Metrics  *metrics.WorkflowMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	probes := map[string]controllers.Pinger{"db": infra.DB}
	if infra.Redis != nil {
		probes["redis"] = infra.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, probes))
	})

	gatherer := infra.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/menu", controllers.PublicMenu())

		submit := quotecontrollers.PublicSubmit(svc.Quotes, logg)
		if infra.Redis != nil {
			limit := middleware.QuoteRateLimit(cfg.RateLimit.QuoteWindow, cfg.RateLimit.QuoteIPLimit, infra.Redis, infra.Metrics, logg)
			r.With(limit).Post("/quotes", submit)
		} else {
			r.Post("/quotes", submit)
		}
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWT, logg))
		if infra.Redis != nil {
			r.Use(middleware.Idempotency(infra.Redis, logg))
		}

		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", quotecontrollers.AdminList(svc.Quotes, logg))
			r.Route("/{quoteId}", func(r chi.Router) {
				r.Get("/", quotecontrollers.AdminDetail(svc.Quotes, logg))
				r.Patch("/status", quotecontrollers.AdminUpdateStatus(svc.Quotes, logg))
				r.Get("/line-items/preview", invoicecontrollers.PreviewLineItems(svc.Invoices, logg))
				r.Post("/invoices", invoicecontrollers.CreateFromQuote(svc.Invoices, logg))
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", invoicecontrollers.List(svc.Invoices, logg))
			r.Route("/{invoiceId}", func(r chi.Router) {
				r.Get("/", invoicecontrollers.Detail(svc.Invoices, logg))
				r.Put("/line-items", invoicecontrollers.ReplaceLineItems(svc.Invoices, logg))
				r.Post("/line-items/regenerate", invoicecontrollers.RegenerateLineItems(svc.Invoices, logg))
				r.Post("/pricing/flat-rate", invoicecontrollers.ApplyFlatRate(svc.Invoices, logg))
				r.Patch("/tax", invoicecontrollers.UpdateTax(svc.Invoices, logg))
				r.Post("/convert", invoicecontrollers.Convert(svc.Invoices, logg))
				r.Post("/paid", invoicecontrollers.MarkPaid(svc.Invoices, logg))
				r.Post("/cancel", invoicecontrollers.Cancel(svc.Invoices, logg))
				r.Post("/send", invoicecontrollers.Send(svc.Estimates, logg))
				r.Post("/documents", invoicecontrollers.RequestDocument(svc.Estimates, logg))
				r.Get("/deliveries", invoicecontrollers.Deliveries(svc.Estimates, logg))
			})
		})

		r.Route("/contracts", func(r chi.Router) {
			r.Post("/", contractcontrollers.Create(svc.Contracts, logg))
			r.Get("/", contractcontrollers.List(svc.Contracts, logg))
			r.Route("/{contractId}", func(r chi.Router) {
				r.Get("/", contractcontrollers.Detail(svc.Contracts, logg))
				r.Post("/send", contractcontrollers.Send(svc.Contracts, logg))
				r.Post("/signed", contractcontrollers.MarkSigned(svc.Contracts, logg))
				r.Post("/void", contractcontrollers.Void(svc.Contracts, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", reportcontrollers.Summary(svc.Reports, logg))
			r.Get("/revenue", reportcontrollers.Revenue(svc.Reports, logg))
			r.Get("/menu-items", reportcontrollers.MenuItems(svc.Reports, logg))
			r.Get("/export.xlsx", reportcontrollers.ExportXLSX(svc.Reports, logg))
		})
	})

	return r
}
