//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

const maxNameLen = 255

// Profile is the persisted user record shared by students and staff.
// Role is not a column; repositories set it from the table they read.
type Profile struct {
	ID                 int64           `json:"id"                   db:"id"`
	Role               domainauth.Role `json:"role"                 db:"-"`
	Identifier         string          `json:"identifier"           db:"identifier"`
	FirstName          string          `json:"first_name"           db:"first_name"`
	LastName           string          `json:"last_name"            db:"last_name"`
	ForceProfileUpdate bool            `json:"force_profile_update" db:"force_profile_update"`
	SecretSalt         string          `json:"-"                    db:"secret_salt"`
	CreatedAt          time.Time       `json:"created_at"           db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"           db:"updated_at"`

	Student *StudentDetails `json:"student,omitempty" db:"-"`
	Staff   *StaffDetails   `json:"staff,omitempty"   db:"-"`
}

// StudentDetails are the optional associations a student owns.
type StudentDetails struct {
	ClassRank         *string `json:"class_rank,omitempty"`
	Majors            *string `json:"majors,omitempty"`
	ResidentialStatus *string `json:"residential_status,omitempty"`
	FallSport         *string `json:"fall_sport,omitempty"`
	SpringSport       *string `json:"spring_sport,omitempty"`
}

// StaffDetails are staff-only attributes.
type StaffDetails struct {
	IsSLPInstructor bool `json:"is_slp_instructor"`
}

// FindOrCreateProfileRequest carries the key and the defaults used only when inserting.
type FindOrCreateProfileRequest struct {
	Role       domainauth.Role
	Identifier string
	FirstName  string
	LastName   string
	Salt       string
}

// Validate checks the request before it reaches storage.
func (r *FindOrCreateProfileRequest) Validate() error {
	if !r.Role.Valid() {
		return errors.New("role is invalid")
	}
	if strings.TrimSpace(r.Identifier) == "" {
		return errors.New("identifier is required")
	}
	if r.Salt == "" {
		return errors.New("salt is required")
	}
	return nil
}

// UpdateProfileRequest is an edit of the user's own profile.
// Saving it always clears ForceProfileUpdate.
type UpdateProfileRequest struct {
	FirstName *string
	LastName  *string
	Student   *StudentDetails
	Staff     *StaffDetails

	// Optional security question answer, stored salted and hashed.
	SecurityQuestionID *int64
	SecurityAnswer     *string
}

// Normalize trims name input in place.
func (r *UpdateProfileRequest) Normalize() {
	if r.FirstName != nil {
		v := strings.TrimSpace(*r.FirstName)
		r.FirstName = &v
	}
	if r.LastName != nil {
		v := strings.TrimSpace(*r.LastName)
		r.LastName = &v
	}
}

// Validate checks name lengths and the answer/question pairing.
func (r *UpdateProfileRequest) Validate() error {
	if r.FirstName != nil && (*r.FirstName == "" || utf8.RuneCountInString(*r.FirstName) > maxNameLen) {
		return errors.New("first name must be 1-255 characters")
	}
	if r.LastName != nil && (*r.LastName == "" || utf8.RuneCountInString(*r.LastName) > maxNameLen) {
		return errors.New("last name must be 1-255 characters")
	}
	if (r.SecurityQuestionID == nil) != (r.SecurityAnswer == nil) {
		return errors.New("security question and answer must be supplied together")
	}
	if r.SecurityAnswer != nil && strings.TrimSpace(*r.SecurityAnswer) == "" {
		return errors.New("security answer must not be blank")
	}
	return nil
}
