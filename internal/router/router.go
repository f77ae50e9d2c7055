package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/masapos/api/internal/config"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/handler"
	"github.com/masapos/api/internal/logger"
	mw "github.com/masapos/api/internal/middleware"
	"github.com/masapos/api/internal/service"
	"github.com/masapos/api/internal/ws"
	log "github.com/sirupsen/logrus"
)

// Deps carries the long-lived objects the routes are built on.
type Deps struct {
	Config   *config.Config
	Queries  *database.Queries
	Pos      *service.PosService
	Sessions *service.SessionRegistry
	Hub      *ws.Hub
	Logger   log.FieldLogger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication, branch scoping, and role-based middleware as needed.
func New(d Deps) chi.Router {
	cfg, queries := d.Config, d.Queries
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(d.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, cfg.CookieSecure)
	authHandler.RegisterRoutes(r)

	// Kiosk time clock authenticates by PIN
	attendanceHandler := handler.NewAttendanceHandler(queries)
	attendanceHandler.RegisterPublicRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/branches/{bid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/calculators", handler.NewCalculatorHandler().RegisterRoutes)
		r.Route("/payment-methods", handler.NewPaymentMethodHandler(queries).RegisterRoutes)

		branchHandler := handler.NewBranchHandler(queries)
		r.Route("/branches", func(r chi.Router) {
			branchHandler.RegisterRoutes(r)

			// Branch-scoped routes
			r.Route("/{bid}", func(r chi.Router) {
				r.Use(mw.RequireBranch)

				branchHandler.RegisterItemRoutes(r)
				r.Route("/personnel", handler.NewPersonnelHandler(queries).RegisterRoutes)
				r.Route("/attendance", attendanceHandler.RegisterRoutes)
				r.Route("/products", handler.NewProductHandler(queries).RegisterRoutes)

				tableHandler := handler.NewTableHandler(queries, d.Hub)
				r.Route("/zones", tableHandler.RegisterZoneRoutes)
				r.Route("/tables", tableHandler.RegisterTableRoutes)

				r.Route("/income", handler.NewIncomeHandler(queries).RegisterRoutes)

				reportsHandler := handler.NewReportsHandler(queries)
				r.Route("/sales", reportsHandler.RegisterSalesRoutes)
				r.Route("/reports", reportsHandler.RegisterRoutes)

				r.Route("/orders", handler.NewOrderHandler(queries).RegisterRoutes)
				r.Route("/pos/sessions", handler.NewPosHandler(d.Sessions, d.Pos).RegisterRoutes)
			})
		})
	})

	d.Logger.Info("router initialized")
	return r
}
