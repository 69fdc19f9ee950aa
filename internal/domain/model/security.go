//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import domainauth "github.com/dewv/nlc-visits/internal/domain/auth"

// SecurityQuestion is a prompt a user can pick for the fallback login.
type SecurityQuestion struct {
	ID   int64  `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}

// SecurityAnswerRecord is what the fallback login compares against.
// Salt is the owning profile's secret salt; AnswerHash is bcrypt(answer + salt).
type SecurityAnswerRecord struct {
	Role       domainauth.Role
	UserID     int64
	Identifier string
	FirstName  string
	LastName   string
	QuestionID int64
	Question   string
	Salt       string
	AnswerHash string
}
