// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// Roles lists every valid role in lookup order (students are checked first).
func Roles() []Role { return []Role{RoleStudent, RoleStaff} }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleStaff
}

// ParseRole converts untrusted input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Landing paths per role.
const (
	StudentLandingPath = "/student/visit"
	StaffLandingPath   = "/visit"
	LoginPath          = "/login"
)

//nolint:gochecknoglobals // static read-only lookup
var landingPaths = map[Role]string{
	RoleStudent: StudentLandingPath,
	RoleStaff:   StaffLandingPath,
}

// LandingPath returns the post-login destination for a role.
func LandingPath(r Role) string {
	if p, ok := landingPaths[r]; ok {
		return p
	}
	return LoginPath
}

// DefaultDomainSuffix is appended to bare account names.
const DefaultDomainSuffix = "@dewv.edu"

// NormalizeIdentifier returns the canonical email-like form of a login name.
// Identifiers that already contain "@" or end with suffix are returned unchanged.
func NormalizeIdentifier(identifier, suffix string) string {
	if strings.Contains(identifier, "@") || strings.HasSuffix(identifier, suffix) {
		return identifier
	}
	return identifier + suffix
}

// Credential is a login attempt. It only lives for the duration of the request.
type Credential struct {
	Identifier string
	Secret     string
}

// Identity is the principal described by a successful authentication.
type Identity struct {
	Role       Role
	FirstName  string
	LastName   string
	Identifier string
}

// OutcomeKind classifies an authentication attempt.
type OutcomeKind int

const (
	OutcomeInvalidCredentials OutcomeKind = iota
	OutcomeSuccess
	OutcomeInsufficientRights
	OutcomeDirectoryUnavailable
	OutcomeUnsupportedFirstLogin
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidCredentials:
		return "invalid_credentials"
	case OutcomeInsufficientRights:
		return "insufficient_rights"
	case OutcomeDirectoryUnavailable:
		return "directory_unavailable"
	case OutcomeUnsupportedFirstLogin:
		return "unsupported_first_login"
	default:
		return "unknown"
	}
}

// Outcome is the result of an authentication attempt. Identity is only
// meaningful when Kind is OutcomeSuccess. The zero value is a rejection.
type Outcome struct {
	Kind     OutcomeKind
	Identity Identity
}

// Succeeded builds a successful outcome.
func Succeeded(id Identity) Outcome {
	return Outcome{Kind: OutcomeSuccess, Identity: id}
}

// Rejected builds a non-success outcome of the given kind.
func Rejected(kind OutcomeKind) Outcome {
	return Outcome{Kind: kind}
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }

// Banner returns the user-facing message for a rejected outcome.
// InsufficientRights is distinct for auditing but shown with its own wording.
func (o Outcome) Banner() string {
	switch o.Kind {
	case OutcomeInvalidCredentials:
		return "Invalid username and/or password."
	case OutcomeInsufficientRights:
		return "Sorry, you are not authorized to use this system."
	case OutcomeUnsupportedFirstLogin:
		return "Sorry, the system does not support first time logins at the moment. Please try again later."
	default:
		return ""
	}
}

// Challenge is the identity presented by the security-question step.
// It is stored server-side so the answer submission cannot swap identities.
type Challenge struct {
	Role       Role   `json:"role"`
	Identifier string `json:"identifier"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Question   string `json:"question"`
}

// Session is the server-side record we persist per browser.
// ID is an opaque session identifier. Role is empty until authentication succeeds.
type Session struct {
	ID                 string     `json:"id"`
	Role               Role       `json:"role,omitempty"`
	UserID             int64      `json:"user_id,omitempty"`
	Identifier         string     `json:"identifier,omitempty"`
	FirstName          string     `json:"first_name,omitempty"`
	LastName           string     `json:"last_name,omitempty"`
	ForceProfileUpdate bool       `json:"force_profile_update,omitempty"`
	DefaultLandingPath string     `json:"default_landing_path,omitempty"`
	CurrentVisitID     *int64     `json:"current_visit_id,omitempty"`
	PendingIdentifier  string     `json:"pending_identifier,omitempty"`
	Challenge          *Challenge `json:"challenge,omitempty"`
	ExpiresAt          time.Time  `json:"expires_at"`
}

// IsAuthenticated reports whether a role has been bound to the session.
func (s Session) IsAuthenticated() bool { return s.Role.Valid() }

// ProfilePath is the user's own profile resource, e.g. /student/42.
func (s Session) ProfilePath() string { return ProfilePath(s.Role, s.UserID) }

// ProfilePath builds the profile resource path for a role and user ID.
func ProfilePath(r Role, userID int64) string {
	return fmt.Sprintf("/%s/%d", r, userID)
}

// ApplyIdentity projects an authenticated identity onto the session.
// It writes exactly the identity fields and nothing else.
func (s *Session) ApplyIdentity(id Identity) {
	s.Role = id.Role
	s.FirstName = id.FirstName
	s.LastName = id.LastName
	s.Identifier = id.Identifier
}

// Clear wipes all state except the session ID and expiry.
func (s *Session) Clear() {
	*s = Session{ID: s.ID, ExpiresAt: s.ExpiresAt}
}
