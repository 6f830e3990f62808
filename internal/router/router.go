package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kotpos/api/internal/billing"
	"github.com/kotpos/api/internal/config"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/handler"
	"github.com/kotpos/api/internal/identity"
	"github.com/kotpos/api/internal/metrics"
	mw "github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
	"github.com/kotpos/api/internal/ws"
)

// Version is reported by /health. Overridden at build time via -ldflags.
var Version = "dev"

// New creates a Chi router with all application routes wired up.
// Every /api route except demo login and logout requires a session.
// Role checks live in each handler's RegisterRoutes.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, m *metrics.Metrics, pub events.Publisher) (chi.Router, error) {
	taxRate, serviceRate, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	calc, err := billing.NewCalculator(taxRate, serviceRate)
	if err != nil {
		return nil, fmt.Errorf("billing calculator: %w", err)
	}
	if pub == nil {
		pub = events.Discard{}
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(slog.Default()))
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, Version)
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	sessions := identity.NewSessionProvider(cfg.JWTSecret, queries)

	// WebSocket route (authenticates the upgrade request itself)
	if hub != nil {
		r.Get("/ws", ws.Handler(hub, sessions, cfg.CORSOrigins))
	}

	authHandler := handler.NewAuthHandler(queries, handler.AuthOptions{
		JWTSecret:    cfg.JWTSecret,
		SessionTTL:   cfg.SessionTTL,
		DemoLogin:    cfg.DemoLogin,
		SecureCookie: cfg.SecureCookies,
	})

	kotService := service.NewKotService(pool, func(db database.DBTX) service.KotStore {
		return database.New(db)
	}, pub)
	stockService := service.NewStockService(pool, func(db database.DBTX) service.StockStore {
		return database.New(db)
	}, pub)
	reversalService := service.NewReversalService(pool, func(db database.DBTX) service.ReversalStore {
		return database.New(db)
	}, pub)
	billService := service.NewBillService(pool, func(db database.DBTX) service.BillStore {
		return database.New(db)
	}, calc, pub)

	r.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)

		// Protected routes (require a valid session)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(sessions))

			authHandler.RegisterSessionRoutes(r)

			r.Route("/kots", handler.NewKotHandler(kotService, queries).RegisterRoutes)
			r.Route("/stock-additions", handler.NewStockAdditionHandler(stockService, queries).RegisterRoutes)
			r.Route("/order-reversals", handler.NewReversalHandler(reversalService, queries).RegisterRoutes)
			r.Route("/bills", handler.NewBillHandler(billService, queries).RegisterRoutes)
			r.Route("/ingredients", handler.NewIngredientHandler(queries).RegisterRoutes)
			r.Route("/menu-items", handler.NewMenuItemHandler(queries).RegisterRoutes)
			r.Route("/dashboard", handler.NewDashboardHandler(queries).RegisterRoutes)
		})
	})

	slog.Info("router initialized", "demo_login", cfg.DemoLogin, "metrics", m != nil, "ws", hub != nil)
	return r, nil
}
