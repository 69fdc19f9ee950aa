package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dewv/nlc-visits/internal/domain/policy"
	apperrors "github.com/dewv/nlc-visits/internal/errors"
)

const maxLocationLen = 255

// BrowserHandlers lets staff register a shared browser for check-in at a location.
type BrowserHandlers struct {
	Views   *Views
	Cookies Cookies
	Logger  *slog.Logger
}

type browserData struct {
	Location string
}

// Show renders the registration form with the current location, if any.
func (h *BrowserHandlers) Show(w http.ResponseWriter, r *http.Request) {
	h.Views.Show(w, r, http.StatusOK, Page{
		View:    ViewBrowser,
		Title:   "Register browser",
		Session: GetSessionFromContext(r.Context()),
		Data:    browserData{Location: Location(r)},
	})
}

// Register stores the location cookie for a year.
func (h *BrowserHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Views.Error(w, r, err)
		return
	}
	location := strings.TrimSpace(r.PostFormValue("location"))
	if location == "" || utf8.RuneCountInString(location) > maxLocationLen {
		h.Views.Error(w, r, apperrors.ValidationField("location", "Location name must be 1-255 characters."))
		return
	}
	h.Cookies.SetLocation(w, r, location)
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		h.Logger.InfoContext(r.Context(), "browser registered", "location", location, "user_id", sess.UserID)
	}
	redirect(w, r, policy.BrowserPath)
}
