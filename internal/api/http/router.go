package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/mindengage-assembly/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
	"github.com/mind-engage/mindengage-assembly/internal/paper"
	"github.com/mind-engage/mindengage-assembly/internal/platform/logger"
	"github.com/mind-engage/mindengage-assembly/internal/rbac"
)

type Deps struct {
	DB     *sql.DB
	Items  itembank.Store
	Papers *paper.Service
	Auth   *authmw.AuthService
	Admin  authmw.Admin
	Log    *logger.Logger

	EnableLocalAuth bool
	// AllowClaimFallback trusts the token role for subjects missing from the
	// users table. Offline mode only.
	AllowClaimFallback bool
	CORSOrigins        []string
	RequestTimeout     time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.DB, d.Admin))
	}

	// JWT -> role from DB -> RBAC per route
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		pr.Use(authmw.AttachRoleFromDB(d.DB, d.AllowClaimFallback))

		pr.Route("/items", func(ir chi.Router) { MountItems(ir, d.Items, d.Log) })
		pr.Route("/papers", func(pp chi.Router) { MountPapers(pp, d.Papers, d.Log) })

		pr.With(rbac.Require(rbac.PermUsersBulkUpsert)).
			Post("/users/bulk", BulkUpsertUsersHandler(d.DB, d.Log))
		pr.With(rbac.Require(rbac.PermUsersList)).
			Get("/users", ListUsersHandler(d.DB, d.Log))
		pr.With(rbac.Require(rbac.PermChangePassword)).
			Post("/users/change-password", ChangePasswordHandler(d.DB, d.Log))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
