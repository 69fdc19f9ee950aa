package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/dewv/nlc-visits/internal/errors"
)

// Views renders pages for handlers and turns errors into error pages.
type Views struct {
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

type errorData struct {
	Status  int
	Message string
}

// Show renders p with the request's CSRF token. A missing view is a 404.
func (v *Views) Show(w http.ResponseWriter, r *http.Request, status int, p Page) {
	p.CSRFToken = GetCSRFToken(r)
	err := v.Renderer.Render(w, status, p)
	switch {
	case err == nil:
	case errors.Is(err, ErrViewNotFound):
		v.logger().WarnContext(r.Context(), "view not found", "view", p.View)
		http.NotFound(w, r)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Error renders err with the status apperrors maps it to. Only AppError
// messages reach the browser; everything else is logged and shown generically.
func (v *Views) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case status >= http.StatusInternalServerError:
		v.logger().ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	default:
		v.logger().InfoContext(r.Context(), "request rejected",
			"method", r.Method, "path", r.URL.Path, "code", apperrors.GetCode(err), "error", err)
	}
	v.Show(w, r, status, Page{
		View:    ViewError,
		Title:   http.StatusText(status),
		Session: GetSessionFromContext(r.Context()),
		Data:    errorData{Status: status, Message: apperrors.PublicMessage(err)},
	})
}

// Forbidden renders the 403 page used by the Authorize middleware.
func (v *Views) Forbidden() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.Show(w, r, http.StatusForbidden, Page{
			View:    ViewError,
			Title:   http.StatusText(http.StatusForbidden),
			Session: GetSessionFromContext(r.Context()),
			Data:    errorData{Status: http.StatusForbidden, Message: "You are not allowed to do that."},
		})
	})
}

func (v *Views) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.Default()
	}
	return v.Logger
}
