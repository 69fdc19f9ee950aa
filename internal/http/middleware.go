package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/policy"
	"github.com/dewv/nlc-visits/internal/ports"
	"github.com/dewv/nlc-visits/internal/service"
)

// SessionLoader is the part of the session binder the middleware needs.
type SessionLoader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) string
	TrackVisit(ctx context.Context, sess *domainauth.Session, openVisitID int64) error
}

// Authorizer evaluates the policy table for a session.
type Authorizer interface {
	Authorize(ctx context.Context, sess domainauth.Session, method, path string) (policy.Decision, policy.Subject, error)
}

var (
	_ SessionLoader = (*service.AuthService)(nil)
	_ Authorizer    = (*service.AuthorizationService)(nil)
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LoadSession attaches the session named by the session cookie to the request
// context. Unknown or expired sessions drop the cookie and continue anonymously.
func LoadSession(sessions SessionLoader, cookies Cookies, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := sessions.GetSession(r.Context(), c.Value)
			if err != nil {
				if !errors.Is(err, ports.ErrSessionNotFound) && !errors.Is(err, service.ErrSessionExpired) {
					logger.WarnContext(r.Context(), "session lookup failed", "error", err)
				}
				cookies.Clear(w, r, SessionCookieName)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		})
	}
}

// RequireAuth sends requests without an authenticated session to the login page.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSessionFromContext(r.Context())
			if sess == nil || !sess.IsAuthenticated() {
				redirect(w, r, domainauth.LoginPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthorizeOptions groups dependencies for the Authorize middleware.
type AuthorizeOptions struct {
	Authz    Authorizer
	Sessions SessionLoader
	Cookies  Cookies
	// Forbidden renders the 403 response. Defaults to a plain-text body.
	Forbidden http.Handler
	Logger    *slog.Logger
}

// Authorize applies the policy table to every request. It must run after
// RequireAuth. A session whose subject cannot be loaded is logged out.
// Student sessions are kept in step with the open visit.
func Authorize(opts AuthorizeOptions) func(http.Handler) http.Handler {
	forbidden := opts.Forbidden
	if forbidden == nil {
		forbidden = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSessionFromContext(r.Context())
			if sess == nil {
				redirect(w, r, domainauth.LoginPath)
				return
			}

			d, subj, err := opts.Authz.Authorize(r.Context(), *sess, r.Method, r.URL.Path)
			if err != nil {
				logger.WarnContext(r.Context(), "authorization subject unavailable, logging out",
					"user_id", sess.UserID, "role", sess.Role, "error", err)
				opts.Cookies.Clear(w, r, SessionCookieName)
				redirect(w, r, opts.Sessions.Logout(r.Context(), sess.ID))
				return
			}

			if subj.Role == domainauth.RoleStudent {
				if err := opts.Sessions.TrackVisit(r.Context(), sess, subj.OpenVisitID); err != nil {
					logger.WarnContext(r.Context(), "recording open visit on session failed",
						"user_id", sess.UserID, "error", err)
				}
			}

			switch d.Effect {
			case policy.Allow:
				next.ServeHTTP(w, r.WithContext(setSubjectInContext(r.Context(), subj)))
			case policy.Redirect:
				redirect(w, r, d.Location)
			default:
				forbidden.ServeHTTP(w, r)
			}
		})
	}
}

// redirect answers form posts with 303 so the browser follows up with GET.
func redirect(w http.ResponseWriter, r *http.Request, location string) {
	code := http.StatusFound
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		code = http.StatusSeeOther
	}
	http.Redirect(w, r, location, code)
}

// chain applies middlewares so the first one listed runs outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
