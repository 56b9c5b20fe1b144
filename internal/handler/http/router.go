package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadline/catalog-service/internal/assetstore"
	"github.com/threadline/catalog-service/internal/service"
	"github.com/threadline/catalog-service/pkg/health"
	"github.com/threadline/catalog-service/pkg/middleware"
)

// RouterConfig carries the cross-cutting dependencies for the router.
type RouterConfig struct {
	TokenValidator middleware.TokenValidator
	CORS           middleware.CORSConfig
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all catalog service routes. Reads are
// public; every mutation requires a valid bearer token and is rate limited
// per client IP.
func NewRouter(
	products *service.ProductService,
	brands *service.BrandService,
	colors *service.ColorService,
	sizes *service.SizeService,
	assets assetstore.Store,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("catalog"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	productHandler := NewProductHandler(products, logger)
	brandHandler := NewBrandHandler(brands, logger)
	catalogHandler := NewCatalogHandler(colors, sizes, logger)
	imageHandler := NewImageHandler(assets, logger)

	rateLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	protect := func(r chi.Router) {
		r.Use(middleware.Auth(cfg.TokenValidator))
		r.Use(rateLimit)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{id}", productHandler.GetProduct)

			r.Group(func(r chi.Router) {
				protect(r)
				r.Post("/", productHandler.CreateProduct)
				r.Patch("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
				r.Put("/{id}/variants/{variantID}/images", productHandler.ReplaceVariantImages)
			})
		})

		r.Route("/brands", func(r chi.Router) {
			r.Get("/", brandHandler.ListBrands)
			r.Get("/{id}", brandHandler.GetBrand)

			r.Group(func(r chi.Router) {
				protect(r)
				r.Post("/", brandHandler.CreateBrand)
				r.Patch("/{id}", brandHandler.UpdateBrand)
				r.Delete("/{id}", brandHandler.DeleteBrand)
			})
		})

		r.Route("/colors", func(r chi.Router) {
			r.Get("/", catalogHandler.ListColors)
			r.Get("/{id}", catalogHandler.GetColor)

			r.Group(func(r chi.Router) {
				protect(r)
				r.Post("/", catalogHandler.CreateColor)
				r.Put("/{id}", catalogHandler.UpdateColor)
				r.Delete("/{id}", catalogHandler.DeleteColor)
			})
		})

		r.Route("/images", func(r chi.Router) {
			protect(r)
			r.Post("/", imageHandler.UploadImage)
			r.Delete("/{assetID}", imageHandler.DeleteImage)
		})

		r.Route("/sizes", func(r chi.Router) {
			r.Get("/", catalogHandler.ListSizes)
			r.Get("/{id}", catalogHandler.GetSize)

			r.Group(func(r chi.Router) {
				protect(r)
				r.Post("/", catalogHandler.CreateSize)
				r.Put("/{id}", catalogHandler.UpdateSize)
				r.Delete("/{id}", catalogHandler.DeleteSize)
			})
		})
	})

	return r
}
