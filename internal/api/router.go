// Package api exposes the expense service over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/expense"
	"gitlab.com/yelinaung/expense-api/internal/identity"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// ExpenseService is the expense logic the handlers call.
type ExpenseService interface {
	Create(ctx context.Context, ownerID string, in expense.CreateInput) (*models.Expense, error)
	Update(ctx context.Context, ownerID string, id int, in expense.UpdateInput) (*models.Expense, error)
	Get(ctx context.Context, ownerID string, id int) (*models.Expense, error)
	List(ctx context.Context, ownerID string, filter repository.ExpenseFilter) ([]models.Expense, error)
	Delete(ctx context.Context, ownerID string, id int) error
	Summary(ctx context.Context, ownerID string, q expense.PeriodQuery) (*aggregate.Summary, error)
	Insights(ctx context.Context, ownerID string, q expense.PeriodQuery) (*expense.InsightsResult, error)
	PeriodExpenses(ctx context.Context, ownerID string, q expense.PeriodQuery) (period.Range, []models.Expense, error)
}

// NameStore is the CRUD surface shared by categories and tags.
type NameStore[T any] interface {
	List(ctx context.Context, ownerID string) ([]T, error)
	GetByID(ctx context.Context, ownerID string, id int) (*T, error)
	Create(ctx context.Context, ownerID, name string) (*T, error)
	Update(ctx context.Context, ownerID string, id int, name string) (*T, error)
	Delete(ctx context.Context, ownerID string, id int) error
}

// SettingsStore persists the owner's month start day.
type SettingsStore interface {
	Get(ctx context.Context, ownerID string) (*models.UserSetting, error)
	Create(ctx context.Context, ownerID string, monthStartDate int) (*models.UserSetting, error)
	Upsert(ctx context.Context, ownerID string, monthStartDate int) (*models.UserSetting, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups everything the router serves.
type Deps struct {
	Expenses   ExpenseService
	Categories NameStore[models.Category]
	Tags       NameStore[models.Tag]
	Settings   SettingsStore
	Health     Pinger
	Identity   identity.Resolver
}

type handler struct {
	expenses   ExpenseService
	categories NameStore[models.Category]
	settings   SettingsStore
	health     Pinger
}

// NewRouter builds the HTTP routes. Every route except /healthz requires an
// identity.
func NewRouter(d Deps) http.Handler {
	h := &handler{
		expenses:   d.Expenses,
		categories: d.Categories,
		settings:   d.Settings,
		health:     d.Health,
	}
	categories := &names[models.Category]{store: d.Categories, kind: "category", encode: categoryResponse}
	tags := &names[models.Tag]{store: d.Tags, kind: "tag", encode: tagResponse}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	r.Use(securityHeaders)

	r.Get("/healthz", h.healthz)

	r.Group(func(r chi.Router) {
		r.Use(requireOwner(d.Identity))

		r.Route("/categories", categories.routes)
		r.Route("/tags", tags.routes)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.getSettings)
			r.Post("/", h.createSettings)
			r.Put("/", h.updateSettings)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.listExpenses)
			r.Post("/", h.createExpense)
			r.Get("/summary", h.summary)
			r.Get("/insights", h.insights)
			r.Get("/charts/category.png", h.categoryChart)
			r.Get("/export.csv", h.exportCSV)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getExpense)
				r.Put("/", h.updateExpense)
				r.Patch("/", h.updateExpense)
				r.Delete("/", h.deleteExpense)
			})
		})
	})

	return r
}
