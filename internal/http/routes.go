package httpx

import (
	"log/slog"
	"net/http"

	"github.com/dewv/nlc-visits/internal/service"
)

// RouterServices groups the services and settings needed to build the router.
type RouterServices struct {
	Sessions *service.AuthService
	Login    *service.LoginService
	Authz    *service.AuthorizationService
	Visits   *service.VisitService
	Profiles *service.ProfileService
	Renderer *TemplateRenderer

	CookieDomain string
	// CSRF enables double-submit cookie checks on form posts.
	CSRF   bool
	Logger *slog.Logger
}

// NewRouter wires every route. Public routes only need a session when one
// exists; everything else goes through RequireAuth and the policy table.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookies := Cookies{Domain: services.CookieDomain}
	views := &Views{Renderer: services.Renderer, Logger: logger}

	authHandlers := &AuthHandlers{
		Sessions: services.Sessions,
		Login:    services.Login,
		Views:    views,
		Cookies:  cookies,
		Logger:   logger,
	}
	visitHandlers := &VisitHandlers{
		Visits:   services.Visits,
		Sessions: services.Sessions,
		Views:    views,
		Cookies:  cookies,
		Logger:   logger,
	}
	profileHandlers := &ProfileHandlers{
		Profiles: services.Profiles,
		Sessions: services.Sessions,
		Views:    views,
		Logger:   logger,
	}
	browserHandlers := &BrowserHandlers{Views: views, Cookies: cookies, Logger: logger}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	registerAuthRoutes(mux, authHandlers)

	protect := func(h http.HandlerFunc) http.Handler {
		return chain(h,
			RequireAuth(),
			Authorize(AuthorizeOptions{
				Authz:     services.Authz,
				Sessions:  services.Sessions,
				Cookies:   cookies,
				Forbidden: views.Forbidden(),
				Logger:    logger,
			}),
		)
	}
	registerVisitRoutes(mux, visitHandlers, protect)
	registerProfileRoutes(mux, profileHandlers, protect)
	mux.Handle("GET /browser", protect(browserHandlers.Show))
	mux.Handle("POST /browser", protect(browserHandlers.Register))

	mws := []func(http.Handler) http.Handler{
		Recover(logger),
		Logging(logger),
		LoadSession(services.Sessions, cookies, logger),
	}
	if services.CSRF {
		mws = append(mws, CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain}))
	}
	return chain(mux, mws...)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /login", h.ShowLogin)
	mux.HandleFunc("POST /login", h.SubmitLogin)
	mux.HandleFunc("GET /securityquestion", h.ShowQuestion)
	mux.HandleFunc("POST /securityquestion", h.SubmitAnswer)
	mux.HandleFunc("GET /logout", h.Logout)
}

func registerVisitRoutes(mux *http.ServeMux, h *VisitHandlers, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /student/visit", protect(h.Action))
	mux.Handle("POST /visit", protect(h.CheckIn))
	mux.Handle("POST /visit/{id}", protect(h.CheckOut))
	mux.Handle("GET /visit", protect(h.List))
}

func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandlers, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /staffmenu", protect(h.StaffMenu))
	mux.Handle("GET /student", protect(h.Students))
	mux.Handle("GET /{role}/{id}/edit", protect(h.Edit))
	mux.Handle("POST /{role}/{id}", protect(h.Update))
}
