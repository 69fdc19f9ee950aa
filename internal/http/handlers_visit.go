package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/domain/visit"
	"github.com/dewv/nlc-visits/internal/service"
)

const defaultListLimit = 100

// VisitHandlers serves student check-in/check-out and the staff visit list.
type VisitHandlers struct {
	Visits   *service.VisitService
	Sessions *service.AuthService
	Views    *Views
	Cookies  Cookies
	Logger   *slog.Logger
}

type checkInData struct {
	Location string
}

type checkOutData struct {
	Visit   *visit.View
	Options []model.PurposeAchieved
}

// Action shows check-in or check-out depending on the student's latest visit.
func (h *VisitHandlers) Action(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	latest, err := h.Visits.Latest(r.Context(), sess.UserID)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	if latest != nil && latest.Open {
		h.Views.Show(w, r, http.StatusOK, Page{
			View:    ViewCheckOut,
			Title:   "Check out",
			Session: sess,
			Data:    checkOutData{Visit: latest, Options: model.PurposeAchievedOptions()},
		})
		return
	}
	h.Views.Show(w, r, http.StatusOK, Page{
		View:    ViewCheckIn,
		Title:   "Check in",
		Session: sess,
		Data:    checkInData{Location: Location(r)},
	})
}

// CheckIn opens a visit at the browser's registered location.
func (h *VisitHandlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	location := Location(r)
	if location == "" {
		h.Logger.InfoContext(r.Context(), "check-in from unregistered browser", "user_id", sess.UserID)
		redirect(w, r, sess.ProfilePath()+"/edit")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Views.Error(w, r, err)
		return
	}

	_, err := h.Visits.CheckIn(r.Context(), sess.UserID, service.CheckInInput{
		Location: location,
		Purpose:  r.PostFormValue("purpose"),
		Notes:    visitNotes(r),
	})
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	h.signOff(w, r, fmt.Sprintf("%s %s is now checked in. Please remember to check out before leaving.",
		sess.FirstName, sess.LastName))
}

// CheckOut closes the open visit, or only saves its notes when no
// purposeAchieved was submitted.
func (h *VisitHandlers) CheckOut(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	visitID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Views.Error(w, r, err)
		return
	}

	in := service.CheckOutInput{
		PurposeAchieved: r.PostFormValue("purposeAchieved"),
		Notes:           visitNotes(r),
	}
	if raw := strings.TrimSpace(r.PostFormValue("durationHours")); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || !model.ValidSuppliedDuration(hours) {
			h.Views.Error(w, r, service.ErrInvalidDuration)
			return
		}
		in.DurationHours = &hours
	}

	res, err := h.Visits.CheckOut(r.Context(), sess.UserID, visitID, in)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	if !res.Closed {
		redirect(w, r, domainauth.StudentLandingPath)
		return
	}
	h.signOff(w, r, fmt.Sprintf("%s %s is now checked out.", sess.FirstName, sess.LastName))
}

// List is the staff visit list.
func (h *VisitHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	opts := model.VisitsListOptions{Limit: limit, Offset: offset, OpenOnly: r.URL.Query().Get("open") == "true"}
	if raw := r.URL.Query().Get("student"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			opts.StudentID = &id
		}
	}
	visits, err := h.Visits.List(r.Context(), opts)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	h.Views.Show(w, r, http.StatusOK, Page{
		View:    ViewVisits,
		Title:   "Visits",
		Session: GetSessionFromContext(r.Context()),
		Data:    visits,
	})
}

// signOff ends the session after a completed check-in or check-out so the
// shared browser is ready for the next student.
func (h *VisitHandlers) signOff(w http.ResponseWriter, r *http.Request, banner string) {
	sess := GetSessionFromContext(r.Context())
	h.Sessions.Logout(r.Context(), sess.ID)
	h.Cookies.Clear(w, r, SessionCookieName)
	h.Views.Show(w, r, http.StatusOK, Page{View: ViewLogin, Title: "Log in", Banner: banner})
}

func visitNotes(r *http.Request) model.VisitNotes {
	return model.VisitNotes{
		UsedTutor:        r.PostFormValue("usedTutor"),
		TutorCourses:     r.PostFormValue("tutorCourses"),
		TutorInstructors: r.PostFormValue("tutorInstructors"),
		Comment:          r.PostFormValue("comment"),
	}
}

func paging(r *http.Request) (limit, offset int) {
	limit = defaultListLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
