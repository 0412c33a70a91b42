package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/hostelbites/api/internal/config"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/handler"
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/metrics"
	mw "github.com/hostelbites/api/internal/middleware"
	"github.com/hostelbites/api/internal/notify"
	"github.com/hostelbites/api/internal/service"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the long-lived objects the routes are built from. Pool may be
// nil, which only disables the database check on /health.
type Deps struct {
	Config             *config.Config
	Queries            *database.Queries
	Pool               *pgxpool.Pool
	Hub                *ws.Hub
	Orders             *service.OrderService
	Cart               *service.CartService
	AdminNotifications *service.AdminNotificationService
	Analytics          *service.AnalyticsService
	Mailer             notify.Mailer
	Prober             handler.WhatsAppProber
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and admin-only middleware as needed.
func New(d Deps) chi.Router {
	cfg := d.Config
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	var pinger handler.Pinger
	if d.Pool != nil {
		pinger = d.Pool
	}
	handler.NewHealthHandler(pinger).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(d.Queries, cfg.Auth.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Storefront helpers, rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.Server.RelayRateLimit, time.Minute))
		relayHandler := handler.NewRelayHandler(d.Mailer, d.Prober, handler.RelayConfig{
			From:         cfg.Email.From,
			AdminAddress: cfg.Email.AdminAddress,
		})
		relayHandler.RegisterRoutes(r)
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, cfg.Auth.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.Auth.JWTSecret))

		menuHandler := handler.NewMenuHandler(d.Queries, d.Hub)
		menuHandler.RegisterRoutes(r)
		categoryHandler := handler.NewCategoryHandler(d.Queries, d.Hub)
		categoryHandler.RegisterRoutes(r)
		settingsHandler := handler.NewSettingsHandler(d.Queries, d.Hub)
		settingsHandler.RegisterRoutes(r)

		handler.NewProfileHandler(d.Queries).RegisterRoutes(r)
		handler.NewCartHandler(d.Cart).RegisterRoutes(r)
		handler.NewOrderHandler(d.Orders).RegisterRoutes(r)
		handler.NewNotificationHandler(d.Queries).RegisterRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAdmin)

			menuHandler.RegisterAdminRoutes(r)
			categoryHandler.RegisterAdminRoutes(r)
			settingsHandler.RegisterAdminRoutes(r)
			handler.NewAdminOrderHandler(d.Orders).RegisterRoutes(r)
			handler.NewAdminNotificationHandler(d.AdminNotifications).RegisterRoutes(r)
			handler.NewUserHandler(d.Queries).RegisterRoutes(r)
			handler.NewAnalyticsHandler(d.Analytics).RegisterRoutes(r)
		})
	})

	logging.Info().Msg("router initialized")
	return r
}
