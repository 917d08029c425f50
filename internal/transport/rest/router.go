package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/auth"
	"github.com/frahmantamala/expenseflow/internal/category"
	"github.com/frahmantamala/expenseflow/internal/dashboard"
	"github.com/frahmantamala/expenseflow/internal/expense"
	"github.com/frahmantamala/expenseflow/internal/profile"
	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/frahmantamala/expenseflow/internal/transport"
	"github.com/frahmantamala/expenseflow/internal/transport/middleware"
	"github.com/frahmantamala/expenseflow/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// Handlers groups everything the router mounts. A nil handler leaves its
// routes out.
type Handlers struct {
	Health    *HealthHandler
	Auth      *auth.Handler
	Category  *category.Handler
	Expense   *expense.Handler
	Dashboard *dashboard.Handler
	Profile   *profile.Handler
}

type RouterOptions struct {
	AllowedOrigins string
	OpenAPIPath    string
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts RouterOptions, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))

	if opts.OpenAPIPath != "" {
		router.Get(swagger.DocumentPath, swagger.DocumentHandler(opts.OpenAPIPath))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/ping", h.Health.Ping)
			r.Get("/health", h.Health.Health)
		}

		if h.Category != nil {
			r.Get("/categories", h.Category.GetCategories)
		}

		if h.Auth == nil {
			return
		}

		r.Post("/auth/sign-in", h.Auth.SignIn)
		r.Post("/auth/refresh", h.Auth.Refresh)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.PrincipalLogFields)

			pr.Post("/auth/sign-out", h.Auth.SignOut)
			pr.Get("/auth/session", h.Auth.Session)

			if h.Profile != nil {
				pr.Get("/users/me", h.Profile.GetCurrentUser)
				pr.With(middleware.RequireCapability(role.CapViewUserDirectory)).
					Get("/users", h.Profile.ListUsers)
			}

			if h.Dashboard != nil {
				pr.Get("/dashboard", h.Dashboard.GetDashboard)
			}

			if h.Expense != nil {
				pr.Route("/expenses", func(er chi.Router) {
					er.Post("/", h.Expense.SubmitExpense)
					er.Get("/", h.Expense.ListMyExpenses)
					er.With(middleware.RequireCapability(role.CapViewPending)).
						Get("/pending", h.Expense.ListPendingExpenses)
					er.With(middleware.RequireCapability(role.CapViewAllExpenses)).
						Get("/all", h.Expense.ListAllExpenses)
					er.Get("/{id}", h.Expense.GetExpense)

					er.Group(func(dr chi.Router) {
						dr.Use(middleware.RequireCapability(role.CapDecideExpense))
						dr.Patch("/{id}/approve", h.Expense.ApproveExpense)
						dr.Patch("/{id}/reject", h.Expense.RejectExpense)
					})
				})
			}
		})
	})

	base := transport.NewBaseHandler(logger)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteAppError(w, internal.NewNotFoundError("Route not found", internal.ErrCodeRouteNotFound))
	})
}
