// Package policy is the per-request authorization decision table.
//
// Rules are exact method+path matches evaluated top to bottom; the first
// match wins. Own-profile rules come first, then the forced-update redirect,
// then the role table. Anything left over is forbidden.
package policy

import (
	"fmt"
	"net/http"
	"strings"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

// Effect is what the caller must do with the request.
type Effect int

const (
	// Forbid is the zero value so an unset decision never grants access.
	Forbid Effect = iota
	Allow
	Redirect
)

func (e Effect) String() string {
	switch e {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "forbid"
	}
}

// Subject is everything the table needs to know about the requester.
type Subject struct {
	Role               domainauth.Role
	UserID             int64
	ForceProfileUpdate bool
	CheckedIn          bool
	OpenVisitID        int64
}

// ProfileEditPath is the subject's own profile form.
func (s Subject) ProfileEditPath() string {
	return domainauth.ProfilePath(s.Role, s.UserID) + "/edit"
}

// Decision is the result of evaluating a request. Rule names the matching
// table entry, or "default" when nothing matched.
type Decision struct {
	Effect   Effect
	Location string
	Rule     string
}

// Allowed reports whether the request may proceed to its handler.
func (d Decision) Allowed() bool { return d.Effect == Allow }

// AnyMethod matches every HTTP method.
const AnyMethod = "*"

// Rule is one row of the table.
type Rule struct {
	Name   string
	Method string
	Path   func(Subject) string
	When   func(Subject) bool
}

func (r Rule) matches(s Subject, method, path string) bool {
	if r.Method != AnyMethod && r.Method != method {
		return false
	}
	if r.Path(s) != path {
		return false
	}
	return r.When == nil || r.When(s)
}

// Paths referenced by the table.
const (
	VisitActionPath  = "/student/visit"
	CheckInPath      = "/visit"
	StaffMenuPath    = "/staffmenu"
	StudentListPath  = "/student"
	VisitListPath    = "/visit"
	BrowserPath      = "/browser"
	forcedUpdateRule = "forced_profile_update"
	defaultRule      = "default"
)

func fixed(p string) func(Subject) string { return func(Subject) string { return p } }

// VisitPath addresses a single visit, e.g. /visit/12.
func VisitPath(id int64) string { return fmt.Sprintf("%s/%d", CheckInPath, id) }

func checkedIn(s Subject) bool    { return s.CheckedIn }
func notCheckedIn(s Subject) bool { return !s.CheckedIn }

//nolint:gochecknoglobals // static read-only table
var ownProfileRules = []Rule{
	{Name: "own_profile_edit", Method: http.MethodGet, Path: Subject.ProfileEditPath},
	{Name: "own_profile_update", Method: http.MethodPost, Path: func(s Subject) string {
		return domainauth.ProfilePath(s.Role, s.UserID)
	}},
}

//nolint:gochecknoglobals // static read-only table
var roleRules = map[domainauth.Role][]Rule{
	domainauth.RoleStudent: {
		{Name: "student_visit_action", Method: http.MethodGet, Path: fixed(VisitActionPath)},
		{Name: "student_check_in", Method: http.MethodPost, Path: fixed(CheckInPath), When: notCheckedIn},
		{Name: "student_check_out", Method: http.MethodPost, When: checkedIn, Path: func(s Subject) string {
			return VisitPath(s.OpenVisitID)
		}},
	},
	domainauth.RoleStaff: {
		{Name: "staff_menu", Method: http.MethodGet, Path: fixed(StaffMenuPath)},
		{Name: "staff_student_list", Method: http.MethodGet, Path: fixed(StudentListPath)},
		{Name: "staff_visit_list", Method: http.MethodGet, Path: fixed(VisitListPath)},
		{Name: "staff_browser_registration", Method: AnyMethod, Path: fixed(BrowserPath)},
	},
}

// OwnProfileRules returns the rules that bypass the forced-update redirect.
func OwnProfileRules() []Rule { return append([]Rule(nil), ownProfileRules...) }

// RoleRules returns the allow rules for a role, in evaluation order.
func RoleRules(r domainauth.Role) []Rule { return append([]Rule(nil), roleRules[r]...) }

// Evaluate decides what to do with method+path for s.
func Evaluate(s Subject, method, path string) Decision {
	if !s.Role.Valid() {
		return Decision{Effect: Forbid, Rule: defaultRule}
	}
	path = canonicalPath(path)

	for _, r := range ownProfileRules {
		if r.matches(s, method, path) {
			return Decision{Effect: Allow, Rule: r.Name}
		}
	}
	if s.ForceProfileUpdate {
		return Decision{Effect: Redirect, Location: s.ProfileEditPath(), Rule: forcedUpdateRule}
	}
	for _, r := range roleRules[s.Role] {
		if r.matches(s, method, path) {
			return Decision{Effect: Allow, Rule: r.Name}
		}
	}
	return Decision{Effect: Forbid, Rule: defaultRule}
}

func canonicalPath(p string) string {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
