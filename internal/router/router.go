package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/config"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/gateway"
	"github.com/sanaol/canteen/internal/handler"
	mw "github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/service"
	"github.com/sanaol/canteen/internal/session"
	"github.com/sanaol/canteen/internal/storage"
	"github.com/sanaol/canteen/internal/ws"
)

// Options carries the optional collaborators of the router. Zero values
// fall back to an in-memory cart store, disabled image uploads, the
// configured redirect gateway and a no-op logger.
type Options struct {
	Carts   session.Store
	Images  storage.ImageStore
	Gateway gateway.Gateway
	Logger  *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	carts := opts.Carts
	if carts == nil {
		carts = session.NewMemoryStore()
	}
	gw := opts.Gateway
	if gw == nil {
		gw = gateway.NewRedirect(cfg.GatewayBaseURL, cfg.GatewaySecret)
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, hub, logger)
	cateringService := service.NewCateringService(pool, func(db database.DBTX) service.CateringStore {
		return database.New(db)
	}, hub, logger)
	menuService := service.NewMenuService(pool, func(db database.DBTX) service.MenuStore {
		return database.New(db)
	}, opts.Images, logger)
	loyaltyService := service.NewLoyaltyService(pool, func(db database.DBTX) service.LoyaltyStore {
		return database.New(db)
	}, logger)
	cartService := service.NewCartService(carts)
	rosterService := service.NewRosterService(pool, func(db database.DBTX) service.RosterStore {
		return database.New(db)
	}, logger)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, logger)
	authHandler.RegisterRoutes(r)

	// Provider callback authenticates by signature.
	paymentHandler := handler.NewPaymentHandler(orderService, cateringService, gw, logger)
	paymentHandler.RegisterCallbackRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Get("/auth/me", authHandler.Me)

		menuHandler := handler.NewMenuHandler(menuService, logger)
		r.Route("/menu", menuHandler.RegisterRoutes)
		r.Get("/notifications", menuHandler.Notifications)

		orderHandler := handler.NewOrderHandler(orderService, logger)
		r.Route("/orders", orderHandler.RegisterRoutes)

		cateringHandler := handler.NewCateringHandler(cateringService, logger)
		r.Route("/catering/events", cateringHandler.RegisterRoutes)

		loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService, cartService, logger)
		r.Route("/loyalty", loyaltyHandler.RegisterRoutes)

		cartHandler := handler.NewCartHandler(cartService, logger)
		r.Route("/cart", cartHandler.RegisterRoutes)

		// Employee directory, shifts, attendance and leave: staff and admins.
		r.Route("/employees", handler.NewEmployeeHandler(rosterService, logger).RegisterRoutes)
		r.Route("/schedule", handler.NewScheduleHandler(rosterService, logger).RegisterRoutes)
		attendanceHandler := handler.NewAttendanceHandler(rosterService, logger)
		r.Route("/attendance", attendanceHandler.RegisterRoutes)
		r.Route("/leaves", attendanceHandler.RegisterLeaveRoutes)

		historyHandler := handler.NewPaymentHistoryHandler(queries, logger)
		r.Route("/payments", func(r chi.Router) {
			paymentHandler.RegisterRoutes(r)
			historyHandler.RegisterRoutes(r)
		})
	})

	logger.Debug("router initialized")
	return r
}
