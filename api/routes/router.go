package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pontodigital/pdv-backend/api/controllers"
	"github.com/pontodigital/pdv-backend/api/middleware"
	checkoutsvc "github.com/pontodigital/pdv-backend/internal/checkout"
	postsalesvc "github.com/pontodigital/pdv-backend/internal/postsale"
	scannersvc "github.com/pontodigital/pdv-backend/internal/scanner"
	storecreditsvc "github.com/pontodigital/pdv-backend/internal/storecredit"
	"github.com/pontodigital/pdv-backend/pkg/config"
	"github.com/pontodigital/pdv-backend/pkg/db"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsRegistry *prometheus.Registry,
	checkoutService *checkoutsvc.Service,
	scannerService *scannersvc.Service,
	postSaleService *postsalesvc.Service,
	storeCreditService *storecreditsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Post("/checkout/validate", controllers.CheckoutValidate(checkoutService, logg))
		r.Post("/scan", controllers.Scan(scannerService, logg))

		r.Route("/postsale/{saleID}", func(r chi.Router) {
			r.Get("/", controllers.PostSaleStatus(postSaleService, logg))
			r.Post("/resolve", controllers.PostSaleResolve(postSaleService, logg))
		})

		r.Get("/customers/{document}/credit", controllers.CustomerCredit(storeCreditService, logg))
	})

	return r
}
