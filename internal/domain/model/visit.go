//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const maxVisitTextLen = 255

// MaxSuppliedDurationHours caps a duration typed in at check-out.
const MaxSuppliedDurationHours = 24

// maxStoredDurationHours caps any stored duration, computed ones included.
const maxStoredDurationHours = 24 * 366

// ValidSuppliedDuration reports whether hours is a usable typed-in duration.
func ValidSuppliedDuration(hours float64) bool {
	return finite(hours) && hours >= 0 && hours <= MaxSuppliedDurationHours
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// PurposeAchieved records whether the visit met its goal.
type PurposeAchieved string

const (
	PurposeAchievedYes     PurposeAchieved = "Yes"
	PurposeAchievedNo      PurposeAchieved = "No"
	PurposeAchievedNotSure PurposeAchieved = "Not sure"
)

// PurposeAchievedOptions returns the allowed values in display order.
func PurposeAchievedOptions() []PurposeAchieved {
	return []PurposeAchieved{PurposeAchievedYes, PurposeAchievedNo, PurposeAchievedNotSure}
}

// Valid reports whether p is one of the allowed values.
func (p PurposeAchieved) Valid() bool {
	switch p {
	case PurposeAchievedYes, PurposeAchievedNo, PurposeAchievedNotSure:
		return true
	default:
		return false
	}
}

// ParsePurposeAchieved accepts the allowed values case-insensitively.
func ParsePurposeAchieved(value string) (PurposeAchieved, bool) {
	v := strings.TrimSpace(value)
	for _, opt := range PurposeAchievedOptions() {
		if strings.EqualFold(v, string(opt)) {
			return opt, true
		}
	}
	return "", false
}

// Visit is one stay at the learning center. CheckOutTime is nil while the visit is open.
type Visit struct {
	ID                  int64            `json:"id"                         db:"id"`
	StudentID           int64            `json:"student_id"                 db:"student_id"`
	CheckInTime         time.Time        `json:"check_in_time"              db:"check_in_time"`
	CheckOutTime        *time.Time       `json:"check_out_time,omitempty"   db:"check_out_time"`
	Location            string           `json:"location"                   db:"location"`
	Purpose             string           `json:"purpose"                    db:"purpose"`
	PurposeAchieved     *PurposeAchieved `json:"purpose_achieved,omitempty" db:"purpose_achieved"`
	UsedTutor           string           `json:"used_tutor"                 db:"used_tutor"`
	TutorCourses        string           `json:"tutor_courses"              db:"tutor_courses"`
	TutorInstructors    string           `json:"tutor_instructors"          db:"tutor_instructors"`
	Comment             string           `json:"comment"                    db:"comment"`
	DurationHours       *float64         `json:"duration_hours,omitempty"   db:"duration_hours"`
	DurationIsEstimated bool             `json:"duration_is_estimated"      db:"duration_is_estimated"`
}

// IsOpen reports whether the visit has not been checked out yet.
func (v *Visit) IsOpen() bool { return v != nil && v.CheckOutTime == nil }

// VisitNotes are the freeform tutoring fields a student may fill in.
type VisitNotes struct {
	UsedTutor        string
	TutorCourses     string
	TutorInstructors string
	Comment          string
}

func (n *VisitNotes) normalize() {
	n.UsedTutor = strings.TrimSpace(n.UsedTutor)
	n.TutorCourses = strings.TrimSpace(n.TutorCourses)
	n.TutorInstructors = strings.TrimSpace(n.TutorInstructors)
	n.Comment = strings.TrimSpace(n.Comment)
}

func (n *VisitNotes) validate() error {
	for _, f := range []string{n.UsedTutor, n.TutorCourses, n.TutorInstructors, n.Comment} {
		if utf8.RuneCountInString(f) > maxVisitTextLen {
			return errors.New("visit notes must be 255 characters or fewer")
		}
	}
	return nil
}

// CreateVisitRequest opens a visit.
type CreateVisitRequest struct {
	StudentID   int64
	CheckInTime time.Time
	Location    string
	Purpose     string
	Notes       VisitNotes
}

// Normalize trims user-supplied text in place.
func (r *CreateVisitRequest) Normalize() {
	r.Location = strings.TrimSpace(r.Location)
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.Notes.normalize()
}

// Validate enforces required fields.
func (r *CreateVisitRequest) Validate() error {
	if r.StudentID <= 0 {
		return errors.New("student_id is required")
	}
	if r.CheckInTime.IsZero() {
		return errors.New("check_in_time is required")
	}
	if r.Purpose == "" {
		return errors.New("purpose is required")
	}
	if utf8.RuneCountInString(r.Purpose) > maxVisitTextLen || utf8.RuneCountInString(r.Location) > maxVisitTextLen {
		return errors.New("purpose and location must be 255 characters or fewer")
	}
	return r.Notes.validate()
}

// CloseVisitRequest is the write-time check-out of an open visit.
type CloseVisitRequest struct {
	ID                  int64
	CheckOutTime        time.Time
	PurposeAchieved     PurposeAchieved
	DurationHours       float64
	DurationIsEstimated bool
	Notes               VisitNotes
}

// Validate enforces check-out invariants.
func (r *CloseVisitRequest) Validate() error {
	if r.ID <= 0 {
		return errors.New("visit id is required")
	}
	if r.CheckOutTime.IsZero() {
		return errors.New("check_out_time is required")
	}
	if !r.PurposeAchieved.Valid() {
		return errors.New("purpose_achieved must be one of Yes, No, Not sure")
	}
	if !finite(r.DurationHours) {
		return errors.New("duration must be a finite number")
	}
	if r.DurationHours < 0 || r.DurationHours > maxStoredDurationHours {
		return errors.New("duration is out of range")
	}
	r.Notes.normalize()
	return r.Notes.validate()
}

// UpdateVisitNotesRequest edits the freeform fields of a visit without closing it.
type UpdateVisitNotesRequest struct {
	ID    int64
	Notes VisitNotes
}

// VisitsListOptions controls paging for the staff visit list.
type VisitsListOptions struct {
	Limit     int
	Offset    int
	StudentID *int64
	OpenOnly  bool
}
