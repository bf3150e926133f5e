package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/logger"
	"pharmapos/m/internal/service"
)

// Options carries the HTTP-facing settings.
type Options struct {
	Secret      string
	TokenTTL    time.Duration
	CORSOrigins []string
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db   *sqlx.DB
	svc  *service.Services
	log  *zap.Logger
	opts Options
}

// New constructs a Handler.
func New(db *sqlx.DB, svc *service.Services, log *zap.Logger, opts Options) *Handler {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Handler{db: db, svc: svc, log: log, opts: opts}
}

// staff may manage the catalogue, purchases and reports.
var staff = []string{domain.RoleAdmin, domain.RolePharmacist}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)

			pr.Get("/auth/me", h.me)
			pr.Post("/auth/change-password", h.changePassword)

			pr.Route("/categories", func(r chi.Router) {
				r.Get("/", h.listCategories)
				r.Get("/{id}", h.getCategory)
				r.With(h.allow(staff...)).Post("/", h.createCategory)
				r.With(h.allow(staff...)).Put("/{id}", h.updateCategory)
				r.With(h.allow(staff...)).Delete("/{id}", h.deleteCategory)
			})

			pr.Route("/medicines", func(r chi.Router) {
				r.Get("/", h.listMedicines)
				r.Get("/low-stock", h.lowStock)
				r.Get("/expiring", h.expiring)
				r.Get("/{id}", h.getMedicine)
				r.Get("/{id}/movements", h.medicineMovements)
				r.With(h.allow(staff...)).Post("/", h.createMedicine)
				r.With(h.allow(staff...)).Put("/{id}", h.updateMedicine)
				r.With(h.allow(staff...)).Delete("/{id}", h.deleteMedicine)
				r.With(h.allow(staff...)).Post("/{id}/adjust-stock", h.adjustStock)
			})

			pr.Route("/sales", func(r chi.Router) {
				r.Get("/", h.listSales)
				r.Post("/", h.createSale)
				r.Get("/{id}", h.getSale)
				r.With(h.allow(staff...)).Post("/{id}/void", h.voidSale)
			})

			pr.Route("/purchases", func(r chi.Router) {
				r.Use(h.allow(staff...))
				r.Get("/", h.listPurchases)
				r.Post("/", h.createPurchase)
				r.Delete("/{id}", h.deletePurchase)
			})

			pr.Route("/users", func(r chi.Router) {
				r.Use(h.allow(domain.RoleAdmin))
				r.Get("/", h.listUsers)
				r.Post("/", h.createUser)
				r.Get("/{id}", h.getUser)
				r.Put("/{id}", h.updateUser)
				r.Delete("/{id}", h.deleteUser)
			})

			pr.With(h.allow(staff...)).Get("/analytics/sales", h.salesAnalytics)
			pr.With(h.allow(staff...)).Get("/analytics/medicines", h.medicineAnalytics)
			pr.Get("/dashboard/stats", h.dashboard)
			pr.Get("/stock-movements", h.listMovements)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Error("health check failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}
