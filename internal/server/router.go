// Package server assembles the HTTP routes of the dashboard.
package server

import (
	"net/http"

	"github.com/ukydev/machinery-dashboard/internal/handlers"
	"github.com/ukydev/machinery-dashboard/internal/middleware"
	"github.com/ukydev/machinery-dashboard/internal/models"
	"github.com/ukydev/machinery-dashboard/internal/pages"
)

// Handlers groups every route handler.
type Handlers struct {
	Auth           *handlers.AuthHandler
	Machines       *handlers.MachineHandler
	Operators      *handlers.OperatorHandler
	Services       *handlers.ServiceHandler
	PreStarts      *handlers.PreStartHandler
	DieselTanks    *handlers.DieselTankHandler
	Plans          *handlers.PlanHandler
	AccessRequests *handlers.AccessRequestHandler
	Templates      *handlers.TemplateHandler
	Lookups        *handlers.LookupHandler
	Notifications  *handlers.NotificationHandler
	Scheduler      *handlers.SchedulerHandler
	Public         *handlers.PublicHandler
	Pages          *pages.Renderer
}

// Gates groups the middleware deciding who may reach a route.
type Gates struct {
	Auth       *middleware.AuthMiddleware
	Suspension *middleware.SuspensionGuard
	RateLimit  *middleware.RateLimitMiddleware
	// PublicLimit requests per PublicWindow seconds per client on public routes.
	PublicLimit  int
	PublicWindow int
}

type chain []func(http.Handler) http.Handler

func (c chain) then(h http.HandlerFunc) http.Handler {
	var out http.Handler = h
	for i := len(c) - 1; i >= 0; i-- {
		out = c[i](out)
	}
	return out
}

// NewRouter registers every route on a new mux and wraps it with request logging.
func NewRouter(h Handlers, g Gates) http.Handler {
	mux := http.NewServeMux()

	public := chain{g.RateLimit.RateLimit(g.PublicLimit, g.PublicWindow)}
	session := chain{g.Auth.Authenticate}
	if g.Suspension != nil {
		session = append(session, g.Suspension.Guard)
	}
	admin := append(append(chain{}, session...), g.Auth.RequireRole(models.RoleAdmin))
	page := chain{g.Auth.RequirePage}
	if g.Suspension != nil {
		page = append(page, g.Suspension.GuardPage)
	}
	with := func(base chain, extra ...func(http.Handler) http.Handler) chain {
		return append(append(chain{}, base...), extra...)
	}

	// Auth
	mux.Handle("POST /api/auth/register", public.then(h.Auth.Register))
	mux.Handle("POST /api/auth/login", public.then(h.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.Handle("GET /api/auth/me", session.then(h.Auth.GetProfile))
	mux.Handle("PUT /api/auth/me", session.then(h.Auth.UpdateProfile))
	mux.Handle("POST /api/auth/password", session.then(h.Auth.ChangePassword))
	mux.Handle("GET /api/auth/session", chain{g.Auth.Authenticate}.then(h.Auth.SessionStatus))
	mux.Handle("GET /api/check-email", public.then(h.Auth.CheckEmail))

	// Machines
	mux.Handle("GET /api/machines", session.then(h.Machines.List))
	mux.Handle("POST /api/machines", with(session, g.Auth.RequirePermission("manage_machines")).then(h.Machines.Create))
	mux.Handle("GET /api/machines/{id}", session.then(h.Machines.Get))
	mux.Handle("PUT /api/machines/{id}", with(session, g.Auth.RequirePermission("manage_machines")).then(h.Machines.Update))
	mux.Handle("DELETE /api/machines/{id}", with(session, g.Auth.RequirePermission("delete_machine")).then(h.Machines.Delete))

	// Operators
	mux.Handle("GET /api/operators", session.then(h.Operators.List))
	mux.Handle("POST /api/operators", with(session, g.Auth.RequirePermission("manage_operators")).then(h.Operators.Create))
	mux.Handle("GET /api/operators/{id}", session.then(h.Operators.Get))
	mux.Handle("PUT /api/operators/{id}", with(session, g.Auth.RequirePermission("manage_operators")).then(h.Operators.Update))

	// Services
	mux.Handle("GET /api/services", session.then(h.Services.List))
	mux.Handle("POST /api/services", with(session, g.Auth.RequirePermission("create_service")).then(h.Services.Create))
	mux.Handle("GET /api/services/{id}", session.then(h.Services.Get))
	mux.Handle("PUT /api/services/{id}", with(session, g.Auth.RequirePermission("update_service")).then(h.Services.Update))

	// Pre-start checks
	mux.Handle("GET /api/prestart", session.then(h.PreStarts.List))
	mux.Handle("POST /api/prestart", with(session, g.Auth.RequirePermission("create_prestart")).then(h.PreStarts.Create))
	mux.Handle("GET /api/prestart/{id}", session.then(h.PreStarts.Get))
	mux.Handle("PUT /api/prestart/{id}", with(session, g.Auth.RequirePermission("create_prestart")).then(h.PreStarts.Update))

	// Diesel tanks
	mux.Handle("GET /api/diesel-tanks", session.then(h.DieselTanks.List))
	mux.Handle("POST /api/diesel-tanks", with(session, g.Auth.RequirePermission("manage_diesel")).then(h.DieselTanks.Create))
	mux.Handle("GET /api/diesel-tanks/{id}", session.then(h.DieselTanks.Get))
	mux.Handle("PUT /api/diesel-tanks/{id}", with(session, g.Auth.RequirePermission("manage_diesel")).then(h.DieselTanks.Update))

	// Plans
	mux.Handle("GET /api/plans", session.then(h.Plans.List))
	mux.Handle("POST /api/plans", admin.then(h.Plans.Create))
	mux.Handle("PUT /api/plans/{id}", admin.then(h.Plans.Update))

	// Access requests
	mux.Handle("POST /api/access-requests", public.then(h.AccessRequests.Create))
	mux.Handle("GET /api/access-requests", admin.then(h.AccessRequests.List))
	mux.Handle("PUT /api/access-requests/{id}", admin.then(h.AccessRequests.Review))

	// Templates and lookups
	mux.Handle("GET /api/templates", session.then(h.Templates.List))
	mux.Handle("POST /api/templates", with(session, g.Auth.RequirePermission("manage_templates")).then(h.Templates.Create))
	mux.Handle("POST /api/templates/names", session.then(h.Lookups.TemplateNames))
	mux.Handle("POST /api/users/names", session.then(h.Lookups.UserNames))
	mux.Handle("POST /api/users-and-operators/emails", session.then(h.Lookups.Emails))

	// Notifications
	mux.Handle("GET /api/notifications", session.then(h.Notifications.List))
	mux.Handle("GET /api/notifications/unread-count", session.then(h.Notifications.UnreadCount))
	mux.Handle("PUT /api/notifications/read-all", session.then(h.Notifications.MarkAllRead))
	mux.Handle("PUT /api/notifications/{id}/read", session.then(h.Notifications.MarkRead))

	// Scheduler
	mux.Handle("GET /api/scheduler/status", session.then(h.Scheduler.Status))

	// Public QR page API
	mux.Handle("GET /api/public/machines/{id}", public.then(h.Public.GetMachine))
	mux.Handle("POST /api/public/services", public.then(h.Public.CreateService))

	// Pages
	mux.HandleFunc("GET /login", h.Pages.Login)
	mux.Handle("GET /{$}", page.then(h.Pages.Dashboard))
	for _, s := range pages.Sections {
		mux.Handle("GET "+s.Path, page.then(h.Pages.Section(s)))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return middleware.RequestLogger(mux)
}
