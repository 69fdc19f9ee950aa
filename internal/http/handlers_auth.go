package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/service"
)

// AuthHandlers serves login, the security-question fallback and logout.
type AuthHandlers struct {
	Sessions *service.AuthService
	Login    *service.LoginService
	Views    *Views
	Cookies  Cookies
	Logger   *slog.Logger
}

type loginData struct {
	Identifier string
}

// ShowLogin renders the login form.
func (h *AuthHandlers) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.Views.Show(w, r, http.StatusOK, Page{View: ViewLogin, Title: "Log in"})
}

// SubmitLogin handles the credential post.
func (h *AuthHandlers) SubmitLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Views.Error(w, r, err)
		return
	}
	cred := domainauth.Credential{
		Identifier: strings.TrimSpace(r.PostFormValue("identifier")),
		Secret:     r.PostFormValue("secret"),
	}

	sess, err := h.session(r)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	res, err := h.Login.Login(r.Context(), sess, cred)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	h.follow(w, r, res, loginData{Identifier: cred.Identifier})
}

// ShowQuestion renders the pending security question.
func (h *AuthHandlers) ShowQuestion(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Login.Challenge(GetSessionFromContext(r.Context()))
	if errors.Is(err, service.ErrNoChallenge) {
		redirect(w, r, domainauth.LoginPath)
		return
	}
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	h.Views.Show(w, r, http.StatusOK, Page{View: ViewQuestion, Title: "Security question", Data: ch})
}

// SubmitAnswer checks the security answer for the challenge held by the session.
func (h *AuthHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Views.Error(w, r, err)
		return
	}
	sess := GetSessionFromContext(r.Context())
	res, err := h.Login.AnswerChallenge(r.Context(), sess, r.PostFormValue("answer"))
	if errors.Is(err, service.ErrNoChallenge) {
		redirect(w, r, domainauth.LoginPath)
		return
	}
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	var data loginData
	if sess != nil && sess.Challenge != nil {
		data.Identifier = sess.Challenge.Identifier
	}
	h.follow(w, r, res, data)
}

// Logout clears the session. It succeeds whether or not one exists.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	id := ""
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		id = sess.ID
	}
	h.Cookies.Clear(w, r, SessionCookieName)
	redirect(w, r, h.Sessions.Logout(r.Context(), id))
}

// Root sends the browser to its landing page.
func (h *AuthHandlers) Root(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil || !sess.IsAuthenticated() {
		redirect(w, r, domainauth.LoginPath)
		return
	}
	redirect(w, r, domainauth.LandingPath(sess.Role))
}

// session returns the request's session or starts an anonymous one.
func (h *AuthHandlers) session(r *http.Request) (*domainauth.Session, error) {
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		return sess, nil
	}
	return h.Sessions.NewSession(r.Context())
}

// follow turns a login step into a redirect, or the login view with a banner.
func (h *AuthHandlers) follow(w http.ResponseWriter, r *http.Request, res service.LoginResult, data loginData) {
	if res.Location != "" && res.Session != nil {
		h.Cookies.SetSession(w, r, res.Session)
		redirect(w, r, res.Location)
		return
	}
	h.Cookies.Clear(w, r, SessionCookieName)
	h.Views.Show(w, r, http.StatusOK, Page{
		View:   ViewLogin,
		Title:  "Log in",
		Banner: res.Banner(),
		Data:   data,
	})
}
