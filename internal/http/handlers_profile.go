package httpx

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	apperrors "github.com/dewv/nlc-visits/internal/errors"
	"github.com/dewv/nlc-visits/internal/service"
)

// ProfileHandlers serves the user's own profile and the staff student list.
type ProfileHandlers struct {
	Profiles *service.ProfileService
	Sessions *service.AuthService
	Views    *Views
	Logger   *slog.Logger
}

type profileData struct {
	Profile   *model.Profile
	Questions []model.SecurityQuestion
	Action    string
	Error     string
}

// Edit renders the profile form. The policy table only lets users reach
// their own path, so the session names the profile.
func (h *ProfileHandlers) Edit(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	p, err := h.Profiles.Get(r.Context(), sess.Role, sess.UserID)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	h.show(w, r, http.StatusOK, p, "")
}

// Update saves the profile form and clears the forced-update flag.
func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.Views.Error(w, r, err)
		return
	}
	req, err := profileForm(r, sess.Role)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}

	p, err := h.Profiles.Update(r.Context(), sess.Role, sess.UserID, req)
	if apperrors.IsValidation(err) {
		current, getErr := h.Profiles.Get(r.Context(), sess.Role, sess.UserID)
		if getErr != nil {
			h.Views.Error(w, r, getErr)
			return
		}
		h.show(w, r, http.StatusBadRequest, current, apperrors.PublicMessage(err))
		return
	}
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}

	sess.FirstName = p.FirstName
	sess.LastName = p.LastName
	sess.ForceProfileUpdate = p.ForceProfileUpdate
	if err := h.Sessions.Save(r.Context(), sess); err != nil {
		h.Views.Error(w, r, err)
		return
	}
	redirect(w, r, domainauth.LandingPath(sess.Role))
}

// StaffMenu is the staff landing menu.
func (h *ProfileHandlers) StaffMenu(w http.ResponseWriter, r *http.Request) {
	h.Views.Show(w, r, http.StatusOK, Page{
		View:    ViewStaffMenu,
		Title:   "Staff menu",
		Session: GetSessionFromContext(r.Context()),
	})
}

// Students lists student profiles for staff.
func (h *ProfileHandlers) Students(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	students, err := h.Profiles.ListStudents(r.Context(), limit, offset)
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	h.Views.Show(w, r, http.StatusOK, Page{
		View:    ViewStudents,
		Title:   "Students",
		Session: GetSessionFromContext(r.Context()),
		Data:    students,
	})
}

func (h *ProfileHandlers) show(w http.ResponseWriter, r *http.Request, status int, p *model.Profile, msg string) {
	questions, err := h.Profiles.ListQuestions(r.Context())
	if err != nil {
		h.Views.Error(w, r, err)
		return
	}
	sess := GetSessionFromContext(r.Context())
	h.Views.Show(w, r, status, Page{
		View:    ViewProfile,
		Title:   "Profile",
		Session: sess,
		Data: profileData{
			Profile:   p,
			Questions: questions,
			Action:    sess.ProfilePath(),
			Error:     msg,
		},
	})
}

// profileForm reads the fields present in the form into an update request.
// Absent fields are left nil so they are not changed.
func profileForm(r *http.Request, role domainauth.Role) (model.UpdateProfileRequest, error) {
	var req model.UpdateProfileRequest
	req.FirstName = formField(r, "firstName")
	req.LastName = formField(r, "lastName")

	switch role {
	case domainauth.RoleStudent:
		req.Student = &model.StudentDetails{
			ClassRank:         formField(r, "classRank"),
			Majors:            formField(r, "majors"),
			ResidentialStatus: formField(r, "residentialStatus"),
			FallSport:         formField(r, "fallSport"),
			SpringSport:       formField(r, "springSport"),
		}
	case domainauth.RoleStaff:
		req.Staff = &model.StaffDetails{IsSLPInstructor: r.PostFormValue("isSLPInstructor") == "true"}
	}

	question := strings.TrimSpace(r.PostFormValue("securityQuestion"))
	answer := r.PostFormValue("securityAnswer")
	if question != "" {
		id, err := strconv.ParseInt(question, 10, 64)
		if err != nil {
			return req, apperrors.ValidationField("securityQuestion", "Pick a security question from the list.")
		}
		req.SecurityQuestionID = &id
		req.SecurityAnswer = &answer
	} else if answer != "" {
		req.SecurityAnswer = &answer
	}
	return req, nil
}

func formField(r *http.Request, name string) *string {
	if _, ok := r.PostForm[name]; !ok {
		return nil
	}
	v := r.PostForm.Get(name)
	return &v
}
